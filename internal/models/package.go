package models

import "time"

// Package is a bundle of lesson credits for sale.
type Package struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name" validate:"required"`
	Description string  `db:"description" json:"description"`
	Credits     int     `db:"credits" json:"credits" validate:"required,gt=0"`
	Price       float64 `db:"price" json:"price" validate:"min=0"`
}

// Purchase records a package bought by a user. Rows are never modified
// after creation.
type Purchase struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id" validate:"required"`
	PackageID   string    `db:"package_id" json:"package_id" validate:"required"`
	PackageName string    `db:"package_name" json:"package_name"`
	Credits     int       `db:"credits_purchased" json:"credits" validate:"required,gt=0"`
	Price       float64   `db:"amount_paid" json:"price" validate:"min=0"`
	Date        time.Time `db:"purchase_date" json:"date"`
}

// PurchaseFilter narrows purchase listings.
type PurchaseFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

// PurchaseRequest lets staff buy a package on behalf of a client.
type PurchaseRequest struct {
	UserID string `json:"user_id"`
}

// FinancialStat aggregates one calendar month.
type FinancialStat struct {
	Month        string  `json:"month"`
	Revenue      float64 `json:"revenue"`
	LessonsGiven int     `json:"lessons_given"`
}

// FinancialSummary is the admin revenue overview.
type FinancialSummary struct {
	TotalRevenue   float64         `json:"total_revenue"`
	TotalPurchases int             `json:"total_purchases"`
	Monthly        []FinancialStat `json:"monthly"`
}

// PurchaseResult is a committed purchase and the buyer's new balance.
type PurchaseResult struct {
	Purchase       Purchase `json:"purchase"`
	PackageCredits int      `json:"package_credits"`
}

// SingleLessonPackageID marks purchases of one pay-per-lesson credit.
const SingleLessonPackageID = "single-lesson"
