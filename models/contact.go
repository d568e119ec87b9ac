// Package models holds the persisted entities of the contact book.
package models

import "github.com/zoobzio/shroud"

// Contact is an address book entry. Tel is stored encrypted.
type Contact struct {
	shroud.Declaration

	ID   int64  `db:"id"`
	Name string `db:"name"`
	Tel  string `db:"tel" shroud:"sensitive"`
}
