// Package sip008 parses server-list documents in the SIP008 online
// configuration delivery format and checks their internal consistency
// before they are handed to the pool.
package sip008
