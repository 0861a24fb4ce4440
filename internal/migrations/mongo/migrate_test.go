package mongo

import (
	"testing"

	bookingsrepo "bookfast/internal/bookings/repository"
	resourcesrepo "bookfast/internal/resources/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections(t *testing.T) {
	defs := Collections()
	require.Len(t, defs, 3)
	assert.Contains(t, defs, bookingsrepo.GuardsCollectionName)

	for _, name := range []string{bookingsrepo.CollectionName, resourcesrepo.CollectionName} {
		def, ok := defs[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, def.Indexes, name)
		assert.Contains(t, def.Validator, "$jsonSchema", name)
	}
}

func TestBookingsIndexes_CoverConflictLookup(t *testing.T) {
	keys, ok := BookingsIndexes[0].Keys.(bson.D)
	require.True(t, ok)

	var names []string
	for _, e := range keys {
		names = append(names, e.Key)
	}
	assert.Equal(t, []string{"resource_id", "status", "start_time", "end_time"}, names)
}
