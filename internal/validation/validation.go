// Package validation runs the client-side form checks. Results are field
// error maps keyed by the JSON field name; they never reach the network.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"marketplace-storefront/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// FieldErrors maps a field name to its message.
type FieldErrors map[string]string

func (f FieldErrors) Has(field string) bool {
	_, ok := f[field]
	return ok
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
	domain   string
}

// New registers the custom tags. domain is the institutional email domain
// registration is restricted to, without the "@".
func New(domain string) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	suffix := "@" + strings.ToLower(strings.TrimPrefix(domain, "@"))

	must(v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	must(v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	}))
	must(v.RegisterValidation("institution", func(fl validator.FieldLevel) bool {
		return strings.HasSuffix(strings.ToLower(strings.TrimSpace(fl.Field().String())), suffix)
	}))
	must(v.RegisterValidation("cardnumber", func(fl validator.FieldLevel) bool {
		return len(Digits(fl.Field().String())) == 16 && len(strings.ReplaceAll(fl.Field().String(), " ", "")) == 16
	}))
	must(v.RegisterValidation("expiry", func(fl validator.FieldLevel) bool {
		return expiryPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("cvv", func(fl validator.FieldLevel) bool {
		return cvvPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && d.IsPositive()
	}))

	return &Validator{validate: v, domain: strings.TrimPrefix(domain, "@")}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Struct validates any tagged struct and converts the result.
func (v *Validator) Struct(s interface{}) FieldErrors {
	errs := FieldErrors{}
	err := v.validate.Struct(s)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["form"] = err.Error()
		return errs
	}
	for _, e := range verrs {
		if _, seen := errs[e.Field()]; seen {
			continue
		}
		errs[e.Field()] = v.message(e)
	}
	return errs
}

func (v *Validator) message(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "emailshape":
		return "Please enter a valid email address"
	case "institution":
		return fmt.Sprintf("Please use your @%s email address", v.domain)
	case "eqfield":
		return "Passwords do not match"
	case "cardnumber":
		return "Card number must be 16 digits"
	case "expiry":
		return "Expiry date must be in MM/YY format"
	case "cvv":
		return "CVV must be 3 or 4 digits"
	case "price":
		return "Price must be a positive number"
	case "oneof":
		return "Please select a valid option"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("Must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("Must be at most %s", e.Param())
	}
	return "Invalid value"
}

// Digits strips everything but 0-9.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type RegisterForm struct {
	Name            string `json:"name" validate:"notblank"`
	Email           string `json:"email" validate:"notblank,emailshape,institution"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type LoginForm struct {
	Email    string `json:"email" validate:"notblank,emailshape"`
	Password string `json:"password" validate:"required"`
}

// ListingForm holds raw user input for create and edit listing.
type ListingForm struct {
	Name           string                 `json:"name" validate:"notblank,max=100"`
	Description    string                 `json:"description" validate:"notblank,max=2000"`
	Price          string                 `json:"price" validate:"notblank,price"`
	Category       string                 `json:"category" validate:"notblank"`
	Condition      string                 `json:"condition" validate:"oneof=new like-new good fair poor"`
	Specifications []models.Specification `json:"specifications"`
	ImageCount     int                    `json:"-"`
}

type ContactForm struct {
	Name    string `json:"name" validate:"notblank"`
	Email   string `json:"email" validate:"notblank,emailshape"`
	Subject string `json:"subject" validate:"notblank"`
	Message string `json:"message" validate:"notblank,min=10"`
}

type CardForm struct {
	CardName   string `json:"cardName"`
	CardNumber string `json:"cardNumber" validate:"required,cardnumber"`
	Expiry     string `json:"expiryDate" validate:"required,expiry"`
	CVV        string `json:"cvv" validate:"required,cvv"`
}

type PaymentForm struct {
	Method string   `json:"paymentMethod" validate:"oneof=credit cash"`
	Card   CardForm `json:"-" validate:"-"`
}

type ReviewForm struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"notblank,max=1000"`
}

type ChangePasswordForm struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type ResetPasswordForm struct {
	Email           string `json:"email" validate:"notblank,emailshape"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type ProfileForm struct {
	Name  string `json:"name" validate:"notblank,max=100"`
	Phone string `json:"phone" validate:"max=20"`
	Bio   string `json:"bio" validate:"max=500"`
}

type ReportForm struct {
	Type        string `json:"type" validate:"oneof=product user review"`
	ItemID      string `json:"itemId" validate:"notblank"`
	Reason      string `json:"reason" validate:"notblank"`
	Description string `json:"description" validate:"max=1000"`
}

type CategoryForm struct {
	Name        string `json:"name" validate:"notblank,max=50"`
	Description string `json:"description" validate:"max=500"`
}

func (v *Validator) Register(f *RegisterForm) FieldErrors { return v.Struct(f) }

func (v *Validator) Login(f *LoginForm) FieldErrors { return v.Struct(f) }

func (v *Validator) Contact(f *ContactForm) FieldErrors { return v.Struct(f) }

func (v *Validator) Review(f *ReviewForm) FieldErrors { return v.Struct(f) }

func (v *Validator) ChangePassword(f *ChangePasswordForm) FieldErrors { return v.Struct(f) }

func (v *Validator) ResetPassword(f *ResetPasswordForm) FieldErrors { return v.Struct(f) }

func (v *Validator) Profile(f *ProfileForm) FieldErrors { return v.Struct(f) }

func (v *Validator) Report(f *ReportForm) FieldErrors { return v.Struct(f) }

func (v *Validator) Category(f *CategoryForm) FieldErrors { return v.Struct(f) }

// Listing validates a listing form. New listings need at least one image.
func (v *Validator) Listing(f *ListingForm, creating bool) FieldErrors {
	errs := v.Struct(f)
	if creating && f.ImageCount < 1 {
		errs["images"] = "Please add at least one image"
	}
	for i, spec := range f.Specifications {
		if strings.TrimSpace(spec.Name) == "" || strings.TrimSpace(spec.Value) == "" {
			errs[fmt.Sprintf("specifications[%d]", i)] = "Specification name and value are required"
		}
	}
	return errs
}

// Delivery is the step-one gate of checkout.
func (v *Validator) Delivery(d *models.DeliveryInfo) FieldErrors {
	return v.Struct(d)
}

// Payment is the step-two gate. Card fields are checked only for credit.
func (v *Validator) Payment(p *PaymentForm) FieldErrors {
	errs := v.Struct(p)
	if p.Method != models.PaymentCredit {
		return errs
	}
	for k, msg := range v.Struct(&p.Card) {
		errs[k] = msg
	}
	return errs
}

// ListingPrice parses a validated price input.
func ListingPrice(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}
