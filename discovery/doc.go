// Package discovery finds the opponent of a seat on the local network.
//
// Each instance announces an Offer over UDP multicast to 239.0.0.1 and
// listens for the offers of the others:
//
//	opponent, err := discovery.FindOpponent(ctx, discovery.Offer{
//		Seat:    0,
//		Address: "192.168.0.10:7000",
//	}, 53552, time.Second)
//
// Every instance tags its packets with a random 8-byte key to filter out
// its own announcements.
package discovery
