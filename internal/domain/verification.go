package domain

import "time"

// PendingVerification ties a phone number to its currently valid OTP.
// PK: phoneNumber. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type PendingVerification struct {
	PhoneNumber string    `json:"phoneNumber" dynamodbav:"phoneNumber"`
	OTP         string    `json:"otp" dynamodbav:"otp"`
	IssueID     string    `json:"issueId" dynamodbav:"issueId"`
	ExpiresAt   int64     `json:"expiresAt" dynamodbav:"expiresAt"` // TTL (Unix seconds)
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt"`
}

// Expired reports whether the OTP is no longer valid at now.
func (v *PendingVerification) Expired(now time.Time) bool {
	return now.Unix() > v.ExpiresAt
}

// UserCounter is the singleton metadata/userCounter document.
type UserCounter struct {
	ID     string `dynamodbav:"id" bson:"_id"`
	LastID int64  `dynamodbav:"lastId" bson:"lastId"`
}

// UserCounterID is the document key of the counter inside the metadata collection.
const UserCounterID = "userCounter"
