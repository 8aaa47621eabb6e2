// Package auth implements the device-code sign-in that the mail server
// exposes as two tools: authenticate_account issues a challenge, and
// complete_authentication exchanges the challenge's flow_cache for an
// account once the user has signed in elsewhere.
//
// The flow has no timer. The caller decides when the user is done (see
// WaitFunc) and a pending outcome means starting over with a new Flow.
package auth
