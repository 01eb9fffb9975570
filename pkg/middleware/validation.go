package middleware

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/shopfront/order-platform/pkg/errors"
)

// rule is a custom validation tag and the message shown when it fails
type rule struct {
	fn      validator.Func
	message string
}

var rules = map[string]rule{
	"notblank":        {fn: notBlank, message: "is required"},
	"checkout_method": {fn: oneOfValues("COD", "Wallet"), message: "must be one of: COD, Wallet"},
	"order_status": {
		fn:      oneOfValues("Processing", "Shipped", "Delivered", "Cancelled", "Returned", "returnPickup", "returnRejected"),
		message: "must be a valid order status",
	},
}

var initOnce sync.Once

// InitValidator registers the custom tags and JSON field naming on gin's validator
func InitValidator() {
	initOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			for tag, r := range rules {
				_ = v.RegisterValidation(tag, r.fn)
			}
			v.RegisterTagNameFunc(fieldName)
		}
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

func oneOfValues(allowed ...string) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// fieldMessage renders one failed constraint
func fieldMessage(e validator.FieldError) string {
	if r, ok := rules[e.Tag()]; ok {
		return r.message
	}
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	}
	return "is invalid"
}

// BindAndValidate binds the JSON body into obj and validates it
func BindAndValidate(c *gin.Context, obj interface{}) *errors.AppError {
	return bindingError(c.ShouldBindJSON(obj), "request body")
}

// BindQueryAndValidate binds query parameters into obj and validates them
func BindQueryAndValidate(c *gin.Context, obj interface{}) *errors.AppError {
	return bindingError(c.ShouldBindQuery(obj), "query parameters")
}

// bindingError turns a bind failure into a 400 naming the offending field
// where one is known. Decoder internals are not echoed back.
func bindingError(err error, source string) *errors.AppError {
	if err == nil {
		return nil
	}

	var (
		invalid   validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case stderrors.As(err, &invalid):
		fields := make(map[string]string, len(invalid))
		for _, e := range invalid {
			fields[e.Field()] = fieldMessage(e)
		}
		return errors.ErrValidationWithFields("validation failed", fields)
	case stderrors.Is(err, io.EOF):
		return errors.ErrBadRequest(source + " is required")
	case stderrors.As(err, &typeErr):
		return errors.ErrValidationWithFields("validation failed", map[string]string{
			typeErr.Field: "must be a " + typeErr.Type.String(),
		})
	case stderrors.As(err, &syntaxErr), stderrors.Is(err, io.ErrUnexpectedEOF):
		return errors.ErrBadRequest(source + " is not valid JSON")
	}
	return errors.ErrBadRequest("invalid " + source + ": " + err.Error())
}

// ContentType requires a JSON content type on non-empty write requests
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength > 0 && !strings.HasPrefix(c.ContentType(), binding.MIMEJSON) {
				AbortWithAppError(c, errors.NewAppError("INVALID_CONTENT_TYPE", "Content-Type must be application/json", http.StatusUnsupportedMediaType))
				return
			}
		}
		c.Next()
	}
}
