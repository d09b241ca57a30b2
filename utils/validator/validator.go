package validatorx

import (
	"strings"
	"sync"

	gpvalidator "github.com/go-playground/validator/v10"
	"github.com/muhammadheryan/stock-reservation/constant"
)

var (
	v   *gpvalidator.Validate
	mut sync.Mutex
)

// Init initializes the validator singleton (idempotent)
func Init() {
	mut.Lock()
	defer mut.Unlock()
	if v != nil {
		return
	}
	v = gpvalidator.New()
	_ = v.RegisterValidation("reservation_status", func(fl gpvalidator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || constant.ReservationStatus(s).Valid()
	})
	// product and warehouse ids become redis key segments
	_ = v.RegisterValidation("stock_key", func(fl gpvalidator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), ":{} \t\n")
	})
}

// ValidateStruct validates a struct using go-playground/validator
func ValidateStruct(s interface{}) error {
	Init()
	return v.Struct(s)
}
