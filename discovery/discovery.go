package discovery

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"time"
)

const (
	multicastIpAddress = "239.0.0.1"
	keySize            = 8
)

// Discover announces Info on the local network and collects the
// announcements of the other instances. Configure Info, Port and
// IntervalBetweenAnnouncements before calling Start; entries are then
// received on Entries until Close.
type Discover struct {
	Info                         []byte
	Port                         uint16
	IntervalBetweenAnnouncements time.Duration
	Entries                      chan Entry
	conn                         *net.UDPConn
	sendConn                     *net.UDPConn
	key                          []byte
}

// Entry is an announcement received from another instance.
type Entry struct {
	Info []byte
	Time time.Time
}

// Start joins the multicast group and starts announcing.
func (d *Discover) Start() error {
	if d.IntervalBetweenAnnouncements <= 0 {
		d.IntervalBetweenAnnouncements = time.Second
	}
	d.Entries = make(chan Entry, 10)
	d.key = []byte(fmt.Sprintf("%08x", rand.Uint32()))
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", multicastIpAddress, d.Port))
	if err != nil {
		return err
	}
	d.conn, err = net.ListenMulticastUDP("udp", nil, addr)
	if err != nil {
		return err
	}
	d.sendConn, err = net.DialUDP("udp", nil, addr)
	if err != nil {
		d.conn.Close()
		return err
	}
	go d.listen()
	go d.announce()
	return nil
}

// Close stops announcing and listening.
func (d *Discover) Close() error {
	return errors.Join(d.conn.Close(), d.sendConn.Close())
}

// listen closes Entries when the connection is closed. Entries that do
// not fit in the buffer are dropped.
func (d *Discover) listen() {
	defer close(d.Entries)
	buffer := make([]byte, 1024)
	for {
		n, _, err := d.conn.ReadFromUDP(buffer)
		if err != nil {
			return
		}
		message := buffer[:n]
		if len(message) < keySize || string(message[:keySize]) == string(d.key) {
			continue
		}
		select {
		case d.Entries <- Entry{Info: append([]byte(nil), message[keySize:]...), Time: time.Now()}:
		default:
			// announcements repeat, a slow reader only misses some
		}
	}
}

func (d *Discover) announce() {
	for {
		if _, err := d.sendConn.Write(append(append([]byte(nil), d.key...), d.Info...)); err != nil {
			return
		}
		time.Sleep(d.IntervalBetweenAnnouncements)
	}
}
