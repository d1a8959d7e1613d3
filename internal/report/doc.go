// Package report renders and delivers the anomaly digest email.
//
// Templates are Liquid (subject and HTML body) so operators can override the
// wording without a rebuild. Delivery goes through a Sender; SESSender is the
// production implementation.
package report
