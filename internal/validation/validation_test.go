package validation

import (
	"testing"

	"marketplace-storefront/internal/models"

	"github.com/stretchr/testify/assert"
)

func newValidator() *Validator {
	return New("mavs.uta.edu")
}

func TestRegisterInstitutionDomain(t *testing.T) {
	v := newValidator()
	form := &RegisterForm{Name: "Ada", Email: "ada@gmail.com", Password: "password1", ConfirmPassword: "password1"}

	errs := v.Register(form)
	assert.Equal(t, "Please use your @mavs.uta.edu email address", errs["email"])

	form.Email = "ada@mavs.uta.edu"
	assert.True(t, v.Register(form).Empty())

	form.Email = "ADA@MAVS.UTA.EDU"
	assert.True(t, v.Register(form).Empty())

	form.Email = "ada@mavs.uta.edu.evil.com"
	assert.True(t, v.Register(form).Has("email"))
}

func TestRegisterPasswordRules(t *testing.T) {
	v := newValidator()

	errs := v.Register(&RegisterForm{Name: "Ada", Email: "ada@mavs.uta.edu", Password: "short", ConfirmPassword: "other"})

	assert.Equal(t, "Must be at least 8 characters", errs["password"])
	assert.Equal(t, "Passwords do not match", errs["confirmPassword"])
}

func TestLoginRequiresFields(t *testing.T) {
	errs := newValidator().Login(&LoginForm{Email: "  "})

	assert.Equal(t, "This field is required", errs["email"])
	assert.Equal(t, "This field is required", errs["password"])
}

func TestDeliveryRequiredFields(t *testing.T) {
	v := newValidator()
	d := &models.DeliveryInfo{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Phone:    "555-0100",
		Address:  "701 S Nedderman Dr",
		City:     "Arlington",
		State:    "TX",
		ZipCode:  "76019",
	}
	assert.True(t, v.Delivery(d).Empty())

	d.City = ""
	d.Email = "not an email"
	errs := v.Delivery(d)
	assert.Len(t, errs, 2)
	assert.Equal(t, "This field is required", errs["city"])
	assert.Equal(t, "Please enter a valid email address", errs["email"])
}

func TestPaymentCardChecksOnlyForCredit(t *testing.T) {
	v := newValidator()

	assert.True(t, v.Payment(&PaymentForm{Method: models.PaymentCash}).Empty())

	errs := v.Payment(&PaymentForm{Method: models.PaymentCredit, Card: CardForm{
		CardNumber: "4111 1111 1111",
		Expiry:     "13/25",
		CVV:        "12",
	}})
	assert.Equal(t, "Card number must be 16 digits", errs["cardNumber"])
	assert.Equal(t, "Expiry date must be in MM/YY format", errs["expiryDate"])
	assert.Equal(t, "CVV must be 3 or 4 digits", errs["cvv"])

	ok := v.Payment(&PaymentForm{Method: models.PaymentCredit, Card: CardForm{
		CardNumber: "4111 1111 1111 1111",
		Expiry:     "12/27",
		CVV:        "1234",
	}})
	assert.True(t, ok.Empty())

	assert.True(t, v.Payment(&PaymentForm{Method: "bitcoin"}).Has("paymentMethod"))
}

func TestListingCreateNeedsImage(t *testing.T) {
	v := newValidator()
	form := &ListingForm{Name: "Desk", Description: "Sturdy", Price: "25.00", Category: "furniture", Condition: "good"}

	assert.Equal(t, "Please add at least one image", v.Listing(form, true)["images"])
	assert.True(t, v.Listing(form, false).Empty())

	form.Price = "-3"
	form.Condition = "broken"
	form.Specifications = []models.Specification{{Name: "Color", Value: ""}}
	errs := v.Listing(form, false)
	assert.Equal(t, "Price must be a positive number", errs["price"])
	assert.Equal(t, "Please select a valid option", errs["condition"])
	assert.True(t, errs.Has("specifications[0]"))
}

func TestReviewBlankComment(t *testing.T) {
	v := newValidator()

	for _, rating := range []int{1, 3, 5} {
		errs := v.Review(&ReviewForm{Rating: rating, Comment: "   \t"})
		assert.True(t, errs.Has("comment"))
	}
	assert.True(t, v.Review(&ReviewForm{Rating: 0, Comment: "ok"}).Has("rating"))
	assert.True(t, v.Review(&ReviewForm{Rating: 4, Comment: "Great seller"}).Empty())
}

func TestContactMessageLength(t *testing.T) {
	errs := newValidator().Contact(&ContactForm{Name: "A", Email: "a@b.co", Subject: "Hi", Message: "short"})
	assert.Equal(t, "Must be at least 10 characters", errs["message"])
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "123", Digits("abc123"))
	assert.Equal(t, "", Digits("--"))
}
