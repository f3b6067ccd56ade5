package types

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// User is an account that can author content and react to it.
type User struct {
	ID         int64     `bun:",pk,autoincrement"      json:"id"`
	Username   string    `bun:",unique,notnull"        json:"username"`
	IsVerified bool      `bun:",notnull,default:false" json:"isVerified"`
	CreatedAt  time.Time `bun:",notnull"               json:"createdAt"`
}
