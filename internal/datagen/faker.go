//-------------------------------------------------------------------------
//
// FleetLogix Warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen generates demo data for a FleetLogix source database.
package datagen

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Faker provides fake data generation using gofakeit.
type Faker struct {
	faker *gofakeit.Faker
}

// NewFaker creates a new Faker with a random seed.
func NewFaker() *Faker {
	return &Faker{
		faker: gofakeit.New(uint64(time.Now().UnixNano())),
	}
}

// NewFakerWithSeed creates a new Faker with a specific seed for reproducibility.
func NewFakerWithSeed(seed uint64) *Faker {
	return &Faker{
		faker: gofakeit.New(seed),
	}
}

// Name generates a random full name.
func (f *Faker) Name() string {
	return f.faker.Name()
}

// FirstName generates a random first name.
func (f *Faker) FirstName() string {
	return f.faker.FirstName()
}

// LastName generates a random last name.
func (f *Faker) LastName() string {
	return f.faker.LastName()
}

// Company generates a random company name.
func (f *Faker) Company() string {
	return f.faker.Company()
}

// City generates a random city name.
func (f *Faker) City() string {
	return f.faker.City()
}

// Phone generates a random phone number.
func (f *Faker) Phone() string {
	return f.faker.Phone()
}

// Int generates a random integer in [min, max].
func (f *Faker) Int(min, max int) int {
	return f.faker.Number(min, max)
}

// Float64 generates a random float in [min, max].
func (f *Faker) Float64(min, max float64) float64 {
	return f.faker.Float64Range(min, max)
}

// Bool generates a random boolean, true with the given probability.
func (f *Faker) Bool(probability float32) bool {
	return f.faker.Float32Range(0, 1) < probability
}

// DateRange generates a random date between start and end.
func (f *Faker) DateRange(start, end time.Time) time.Time {
	return f.faker.DateRange(start, end)
}

// LicensePlate generates a plate of three letters and three digits.
func (f *Faker) LicensePlate() string {
	return strings.ToUpper(f.faker.LetterN(3)) + f.faker.DigitN(3)
}

// TrackingNumber generates a tracking number like "FLX-0000012345".
func (f *Faker) TrackingNumber() string {
	return "FLX-" + f.faker.DigitN(10)
}

// EmployeeCode generates a code like "EMP-0042".
func (f *Faker) EmployeeCode(n int) string {
	return fmt.Sprintf("EMP-%04d", n)
}

// RouteCode generates a code like "RT-017".
func (f *Faker) RouteCode(n int) string {
	return fmt.Sprintf("RT-%03d", n)
}

// Choose picks a random element from the given options.
func Choose[T any](f *Faker, options []T) T {
	return options[f.faker.Number(0, len(options)-1)]
}
