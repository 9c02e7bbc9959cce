package directory

import "time"

// Person is a contact who owns one or more phone numbers.
type Person struct {
	PersonID  string     `json:"personId" db:"person_id"`
	Name      string     `json:"name" db:"name"`
	TaxID     string     `json:"taxId" db:"tax_id"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`

	Phones []Phone `json:"phones,omitempty" db:"-"`
}

func (p Person) Deleted() bool { return p.DeletedAt != nil }

// Phone is a number owned by a person. Numbers are unique per person; the
// insert path skips duplicates rather than failing the whole batch.
type Phone struct {
	PhoneID     string     `json:"phoneId" db:"phone_id"`
	Area        string     `json:"area" db:"area"`
	PhoneNumber string     `json:"phoneNumber" db:"phone_number"`
	PersonID    string     `json:"personId" db:"person_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// PhoneWithOwner pairs a phone with the person it belongs to, for number
// search results.
type PhoneWithOwner struct {
	Phone
	Person Person `json:"person"`
}
