// Package textutil provides small text helpers for turning free-form topics
// into display titles and filesystem or object-key safe slugs.
package textutil
