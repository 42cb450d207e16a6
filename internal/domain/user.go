package domain

import (
	"strconv"
	"time"
)

// User is a registered account. DocID is the document key: the decimal form
// of UserID.
type User struct {
	DocID       string    `json:"-" dynamodbav:"id" bson:"_id"`
	UserID      int64     `json:"userId" dynamodbav:"userId" bson:"userId"`
	FullName    string    `json:"fullName" dynamodbav:"fullName" bson:"fullName"`
	PhoneNumber string    `json:"phoneNumber" dynamodbav:"phoneNumber" bson:"phoneNumber"`
	Email       string    `json:"email" dynamodbav:"email" bson:"email"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt" bson:"createdAt"`
}

// UserDocID returns the document key for a user identifier.
func UserDocID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
