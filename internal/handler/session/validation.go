package session

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the custom binding rules the session
// endpoints use. Call once at startup.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	// hhmm accepts a 24h wall-clock value like "14:30".
	v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})
}
