package enums

import "fmt"

// AuctionStatus tracks the lifecycle of an auction listing.
type AuctionStatus string

const (
	AuctionStatusPending   AuctionStatus = "pending"
	AuctionStatusActive    AuctionStatus = "active"
	AuctionStatusEnded     AuctionStatus = "ended"
	AuctionStatusCancelled AuctionStatus = "cancelled"
	AuctionStatusRejected  AuctionStatus = "rejected"
)

var validAuctionStatuses = []AuctionStatus{
	AuctionStatusPending,
	AuctionStatusActive,
	AuctionStatusEnded,
	AuctionStatusCancelled,
	AuctionStatusRejected,
}

// String implements fmt.Stringer.
func (a AuctionStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuctionStatus.
func (a AuctionStatus) IsValid() bool {
	for _, candidate := range validAuctionStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from the status.
func (a AuctionStatus) IsTerminal() bool {
	switch a {
	case AuctionStatusEnded, AuctionStatusCancelled, AuctionStatusRejected:
		return true
	}
	return false
}

// ParseAuctionStatus converts raw input into an AuctionStatus.
func ParseAuctionStatus(value string) (AuctionStatus, error) {
	for _, candidate := range validAuctionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auction status %q", value)
}
