package directory

import (
	"context"
	"time"
)

// Repository is the persistence contract for persons and phones.
type Repository interface {
	CreatePerson(ctx context.Context, p Person) error
	FindPerson(ctx context.Context, personID string) (Person, error)
	ListPersons(ctx context.Context) ([]Person, error)
	SoftDeletePerson(ctx context.Context, personID string, now time.Time) (Person, error)

	InsertPhones(ctx context.Context, phones []Phone) error
	ListPhonesByPerson(ctx context.Context, personID string) ([]Phone, error)
	FindPhone(ctx context.Context, phoneID string) (Phone, error)
	FindPhonesByNumber(ctx context.Context, phoneNumber string) ([]PhoneWithOwner, error)

	// DeletePhone removes the phone row itself; call records referencing
	// the phone stay untouched.
	DeletePhone(ctx context.Context, phoneID string) error
}
