package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/locdb/locdb/dbformat"
)

func TestSetVendorDescriptionLicense(t *testing.T) {
	w := New()
	assert.NoError(t, w.SetVendor("Acme Networks"))
	assert.NoError(t, w.SetDescription("Acme IP geolocation feed"))
	assert.NoError(t, w.SetLicense("CC-BY-SA"))
	assert.Equal(t, StatePopulating, w.State())
}

func TestAddASDuplicateRejected(t *testing.T) {
	w := New()
	_, err := w.AddAS(15169, "Google LLC")
	assert.NoError(t, err)
	_, err = w.AddAS(15169, "Google LLC (dup)")
	assert.ErrorIs(t, err, ErrAlreadyPresent)
}

func TestAddCountryDuplicateRejected(t *testing.T) {
	w := New()
	_, err := w.AddCountry("US", "NA", "United States")
	assert.NoError(t, err)
	_, err = w.AddCountry("US", "NA", "United States again")
	assert.ErrorIs(t, err, ErrAlreadyPresent)
}

func TestAddNetworkInvalidAndDuplicate(t *testing.T) {
	w := New()
	_, err := w.AddNetwork("2001:db8::/129", "", 0, 0)
	assert.Error(t, err)

	_, err = w.AddNetwork("2001:db8::/32", "", 0, 0)
	assert.NoError(t, err)
	_, err = w.AddNetwork("2001:db8::/32", "", 0, 0)
	assert.Error(t, err)
}

func TestWriteClosesWriter(t *testing.T) {
	w := New()
	w.AddAS(15169, "Google LLC")
	sink := NewMemSink()
	assert.NoError(t, w.Write(sink))
	assert.Equal(t, StateDone, w.State())

	_, err := w.AddAS(1, "Level 3")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWriteProducesPageAlignedSections(t *testing.T) {
	w := New()
	w.SetVendor("Acme Networks")
	w.AddAS(15169, "Google LLC")
	w.AddCountry("US", "NA", "United States")
	w.AddNetwork("8.8.8.0/24", "US", 15169, 0)

	sink := NewMemSink()
	assert.NoError(t, w.Write(sink))

	buf := sink.Bytes()
	assert.Equal(t, dbformat.Magic, string(buf[:dbformat.MagicLen-1]))
	assert.Equal(t, byte(0), buf[dbformat.MagicLen-1])

	headerOffset := int64(dbformat.MagicLen + 2)
	header, err := dbformat.DecodeHeaderV1(buf[headerOffset : headerOffset+dbformat.HeaderV1Size])
	assert.NoError(t, err)

	assert.Zero(t, int64(header.ASOffset)%dbformat.PageSize)
	assert.Zero(t, int64(header.NetworkTreeOffset)%dbformat.PageSize)
	assert.Zero(t, int64(header.PoolOffset)%dbformat.PageSize)
	assert.Zero(t, int64(header.CountriesOffset)%dbformat.PageSize)
	assert.Equal(t, uint32(dbformat.ASRecordSize), header.ASLength)
	assert.Equal(t, uint32(dbformat.CountryRecordSize), header.CountriesLength)
	assert.True(t, int64(len(buf)) >= int64(header.CountriesOffset)+int64(header.CountriesLength))
}
