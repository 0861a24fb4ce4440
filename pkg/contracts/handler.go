package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Worker is a background loop owned by the application. Stop must be safe
// to call more than once.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
