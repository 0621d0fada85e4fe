package util

import "github.com/h2non/gock"

// ResetGock drops every registered mock and any unmatched request record.
func ResetGock() {
	gock.Off()
	gock.Clean()
	gock.CleanUnmatchedRequest()
}

// PendingMocksCount reports how many registered mocks were never consumed.
func PendingMocksCount() int {
	return len(gock.Pending())
}
