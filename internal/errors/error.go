// Package errors provides custom error types for shop operations.
package errors

import "errors"

var ErrProductNotFound = errors.New("product not found")
var ErrOrderNotFound = errors.New("order not found")

// ErrOutOfStock is returned when the requested quantity exceeds the
// product's current stock. It is an expected result, not a failure: callers
// surface it to the end user instead of logging it as an error.
var ErrOutOfStock = errors.New("product out of stock")

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

var ErrCreateProduct = errors.New("failed to create product")
var ErrCreateOrder = errors.New("failed to create order")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")
