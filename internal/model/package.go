package model

import "time"

// Package is a published package. The core only reads packages; writes exist
// for seeding and tests.
type Package struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     int64     `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Version is one published version of a package.
type Version struct {
	ID        int64     `json:"id"`
	PackageID int64     `json:"packageId"`
	Num       string    `json:"num"`
	CreatedAt time.Time `json:"createdAt"`
}

// VersionSummary is a feed entry: a version joined with its package name.
type VersionSummary struct {
	ID        int64     `json:"id"`
	Package   string    `json:"package"`
	Num       string    `json:"num"`
	CreatedAt time.Time `json:"createdAt"`
}

// Feed is one page of version updates for a user's followed packages.
// More is true when at least one row exists past the end of this page.
type Feed struct {
	Versions []VersionSummary
	More     bool
}

// PackagePage is one page of packages owned by a user.
type PackagePage struct {
	Packages []Package
	More     bool
}
