package reader

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/locdb/locdb/address"
	"github.com/locdb/locdb/writer"
)

func mustAddr(t *testing.T, s string) address.Address {
	t.Helper()
	ip := net.ParseIP(s)
	assert.NotNil(t, ip)
	a, err := address.FromNetIP(ip)
	assert.NoError(t, err)
	return a
}

func buildDB(t *testing.T, populate func(w *writer.Writer)) *DB {
	t.Helper()
	w := writer.New()
	populate(w)
	sink := writer.NewMemSink()
	assert.NoError(t, w.Write(sink))

	buf := sink.Bytes()
	db, err := Open(bytes.NewReader(buf), int64(len(buf)))
	assert.NoError(t, err)
	assert.Equal(t, StateReady, db.State())
	return db
}

func TestOpenEmptyDatabase(t *testing.T) {
	db := buildDB(t, func(w *writer.Writer) {
		w.SetVendor("Acme Networks")
		w.SetDescription("Acme IP geolocation feed")
		w.SetLicense("CC-BY-SA")
	})

	assert.Equal(t, "Acme Networks", db.Vendor())
	assert.Equal(t, "Acme IP geolocation feed", db.Description())
	assert.Equal(t, "CC-BY-SA", db.License())
	assert.Equal(t, 0, db.CountAS())
	assert.Equal(t, 0, db.CountNetworks())

	_, err := db.Lookup(mustAddr(t, "8.8.8.8"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupGoogleNetwork(t *testing.T) {
	db := buildDB(t, func(w *writer.Writer) {
		_, err := w.AddAS(15169, "Google LLC")
		assert.NoError(t, err)
		_, err = w.AddCountry("US", "NA", "United States")
		assert.NoError(t, err)
		_, err = w.AddNetwork("8.8.8.0/24", "US", 15169, 0)
		assert.NoError(t, err)
	})

	assert.Equal(t, 1, db.CountAS())
	assert.Equal(t, 1, db.CountNetworks())

	a, err := db.GetAS(15169)
	assert.NoError(t, err)
	assert.Equal(t, "Google LLC", db.ASName(a))

	n, err := db.Lookup(mustAddr(t, "8.8.8.8"))
	assert.NoError(t, err)
	assert.Equal(t, uint32(15169), n.ASN)
	assert.Equal(t, "US", n.CountryCodeString())
	assert.Equal(t, "8.8.8.0/24", n.String())

	_, err = db.Lookup(mustAddr(t, "8.8.9.1"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetAS(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupPrefersMostSpecificMatch(t *testing.T) {
	db := buildDB(t, func(w *writer.Writer) {
		_, err := w.AddNetwork("10.0.0.0/8", "US", 1, 0)
		assert.NoError(t, err)
		_, err = w.AddNetwork("10.1.0.0/16", "DE", 2, 0)
		assert.NoError(t, err)
	})

	n, err := db.Lookup(mustAddr(t, "10.1.2.3"))
	assert.NoError(t, err)
	assert.Equal(t, "DE", n.CountryCodeString())
	assert.Equal(t, "10.1.0.0/16", n.String())

	n, err = db.Lookup(mustAddr(t, "10.2.0.1"))
	assert.NoError(t, err)
	assert.Equal(t, "US", n.CountryCodeString())
	assert.Equal(t, "10.0.0.0/8", n.String())
}

func TestEnumerateNetworksFiltersByCountry(t *testing.T) {
	db := buildDB(t, func(w *writer.Writer) {
		_, err := w.AddNetwork("8.8.8.0/24", "US", 15169, 0)
		assert.NoError(t, err)
		_, err = w.AddNetwork("2001:db8::/32", "DE", 3320, 0)
		assert.NoError(t, err)
	})

	us, err := db.EnumerateNetworks("US", nil, nil)
	assert.NoError(t, err)
	assert.Len(t, us, 1)
	assert.Equal(t, "8.8.8.0/24", us[0].String())

	all, err := db.EnumerateNetworks("", nil, nil)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEnumerateASesByDecimalPrefixAndName(t *testing.T) {
	db := buildDB(t, func(w *writer.Writer) {
		_, err := w.AddAS(15169, "Google LLC")
		assert.NoError(t, err)
		_, err = w.AddAS(15170, "Some Other Org")
		assert.NoError(t, err)
		_, err = w.AddAS(3320, "Deutsche Telekom AG")
		assert.NoError(t, err)
	})

	byPrefix := db.EnumerateASes("151")
	assert.Len(t, byPrefix, 2)

	byName := db.EnumerateASes("google")
	assert.Len(t, byName, 1)
	assert.Equal(t, uint32(15169), byName[0].Number)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	buf := make([]byte, 64)
	_, err := Open(bytes.NewReader(buf), int64(len(buf)))
	assert.Error(t, err)
}
