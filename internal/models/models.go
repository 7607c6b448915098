// Package models defines the invoice, matching, claim and payment types that flow
// through the claimflow pipeline. Monetary values are int64 minor units throughout.
package models
