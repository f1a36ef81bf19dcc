// Package httpapi serves the ticketauth HTTP surface on gin.
//
// Every JSON body is an envelope {code, message, data}. Code 0 is success;
// failures carry one of the Code* constants and never expose internal error
// text.
package httpapi
