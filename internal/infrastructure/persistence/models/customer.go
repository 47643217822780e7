package models

import (
	"time"

	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// CustomerModel is the persistence model for the Customer aggregate. The
// stored card is flattened into card_* columns.
type CustomerModel struct {
	ID string `gorm:"type:varchar(64);primaryKey"`
	AggregateModel
	SecretHash          string            `gorm:"type:varchar(100);not null"`
	Name                string            `gorm:"type:varchar(200);not null"`
	Address             string            `gorm:"type:varchar(500);not null"`
	CardNumber          string            `gorm:"type:varchar(16);not null"`
	CardHolder          string            `gorm:"type:varchar(200)"`
	CardExpiryYear      int               `gorm:"not null"`
	CardExpiryMonth     int               `gorm:"not null"`
	CardCVV             string            `gorm:"type:varchar(4)"`
	CardBalance         valueobject.Money `gorm:"type:numeric(12,2);not null"`
	ChallengeQuestion   string            `gorm:"type:varchar(200);not null"`
	ChallengeAnswerHash string            `gorm:"type:varchar(100);not null"`
	FailedLogins        int               `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *identity.Customer {
	return &identity.Customer{
		BaseAggregateRoot: m.AggregateModel.ToDomain(),
		ID:                m.ID,
		SecretHash:        m.SecretHash,
		Name:              m.Name,
		Address:           m.Address,
		Instrument: payment.Instrument{
			Number:  m.CardNumber,
			Holder:  m.CardHolder,
			Expiry:  payment.Expiry{Year: m.CardExpiryYear, Month: time.Month(m.CardExpiryMonth)},
			CVV:     m.CardCVV,
			Balance: m.CardBalance,
		},
		Challenge: identity.Challenge{
			Question:   m.ChallengeQuestion,
			AnswerHash: m.ChallengeAnswerHash,
		},
		FailedLogins: m.FailedLogins,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *identity.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.ID = c.ID
	m.SecretHash = c.SecretHash
	m.Name = c.Name
	m.Address = c.Address
	m.CardNumber = c.Instrument.Number
	m.CardHolder = c.Instrument.Holder
	m.CardExpiryYear = c.Instrument.Expiry.Year
	m.CardExpiryMonth = int(c.Instrument.Expiry.Month)
	m.CardCVV = c.Instrument.CVV
	m.CardBalance = c.Instrument.Balance
	m.ChallengeQuestion = c.Challenge.Question
	m.ChallengeAnswerHash = c.Challenge.AnswerHash
	m.FailedLogins = c.FailedLogins
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *identity.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
