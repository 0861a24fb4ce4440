package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"bookfast/pkg/logger"
	"bookfast/pkg/model"

	"github.com/go-playground/validator/v10"
)

var (
	resourceIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("resource_id", validateResourceID); err != nil {
		log.Fatal("Failed to register 'resource_id' validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateResourceID(fl validator.FieldLevel) bool {
	return resourceIDRegex.MatchString(fl.Field().String())
}

// Validate checks a create request. Bookings may not start before now.
func (v *BookingValidator) Validate(req *model.BookingRequest, now time.Time) error {
	if err := v.validateStruct(req); err != nil {
		return err
	}

	if err := validateInterval(req.StartTime, req.EndTime); err != nil {
		return err
	}

	if req.StartTime.Before(now) {
		return ValidationErrors{
			ValidationError{
				Field:   "start_time",
				Message: "start_time cannot be in the past",
			},
		}
	}

	return nil
}

// ValidateUpdate checks the fields present in a partial update. The merged
// interval is checked by ValidateInterval once the stored booking is known.
func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := v.validateStruct(update); err != nil {
		return err
	}

	if update.StartTime == nil && update.EndTime == nil && update.Notes == nil {
		return ValidationErrors{
			ValidationError{
				Field:   "body",
				Message: "at least one of start_time, end_time or notes is required",
			},
		}
	}

	if update.StartTime != nil && update.EndTime != nil {
		return validateInterval(*update.StartTime, *update.EndTime)
	}

	return nil
}

func (v *BookingValidator) ValidateConflictCheck(check *model.ConflictCheck) error {
	if err := v.validateStruct(check); err != nil {
		return err
	}
	return validateInterval(check.StartTime, check.EndTime)
}

func (v *BookingValidator) ValidateInterval(start, end time.Time) error {
	return validateInterval(start, end)
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func validateInterval(start, end time.Time) error {
	if !end.After(start) {
		return ValidationErrors{
			ValidationError{
				Field:   "end_time",
				Message: "end_time must be after start_time",
			},
		}
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "resource_id":
			message = fmt.Sprintf("%s may only contain letters, digits and . _ : -", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
