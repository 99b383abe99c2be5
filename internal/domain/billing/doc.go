// Package billing models the slice of the external billing backend this
// service works with: invoices, billing cycles, and meter reading
// submissions.
//
// The billing backend owns invoice lifecycle and payment collection. This
// package only defines the models exchanged with it and the Gateway
// contract the reconciliation engine talks through. Utility invoices
// generated from inspection readings carry a marker in their reference
// field so reconciliation can tell them apart from regular cycle
// invoices.
package billing
