/*
Command locdb is a thin CLI wrapper around the writer/reader library:
create a database from flags, add networks to it, look an address up, or
dump its contents.
*/
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/locdb/locdb/address"
	"github.com/locdb/locdb/loccontext"
	"github.com/locdb/locdb/network"
	"github.com/locdb/locdb/reader"
	"github.com/locdb/locdb/writer"
)

// repeatedFlag collects every occurrence of a flag.Var-backed flag in the
// order given on the command line.
type repeatedFlag []string

func (r *repeatedFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatedFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx := loccontext.NewFromEnv()

	var err error
	switch os.Args[1] {
	case "create":
		err = runCreate(ctx, os.Args[2:])
	case "add-network":
		err = runAddNetwork(ctx, os.Args[2:])
	case "lookup":
		err = runLookup(ctx, os.Args[2:])
	case "dump":
		err = runDump(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "locdb:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: locdb <command> [flags]

commands:
  create       build a new database from -as/-country/-network flags
  add-network  rebuild an existing database (-in) into -out with one more network
  lookup       print the network covering an address
  dump         list every network and AS in a database`)
}

// runCreate builds a database in one shot: a Writer is append-only and
// serializes exactly once, so every AS, country, and network the output
// file should contain is supplied as repeated flags to a single invocation.
func runCreate(ctx *loccontext.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	out := fs.String("out", "", "output file path")
	vendor := fs.String("vendor", "", "vendor string")
	description := fs.String("description", "", "description string")
	license := fs.String("license", "", "license string")
	var ases, countries, networks repeatedFlag
	fs.Var(&ases, "as", "NUMBER=NAME, repeatable")
	fs.Var(&countries, "country", "CODE,CONTINENT,NAME, repeatable")
	fs.Var(&networks, "network", "CIDR,COUNTRY,ASN,FLAGS, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("create: -out is required")
	}

	w := writer.New(writer.WithContext(ctx))
	if err := w.SetVendor(*vendor); err != nil {
		return err
	}
	if err := w.SetDescription(*description); err != nil {
		return err
	}
	if err := w.SetLicense(*license); err != nil {
		return err
	}
	if err := populate(w, ases, countries, networks); err != nil {
		return err
	}
	return writeToFile(w, *out)
}

// runAddNetwork is a convenience alias: it re-opens an existing database
// read-only, copies its vendor, description, license, ASes, and networks
// into a new Writer, then rebuilds *out with the additional network
// appended. The underlying
// Writer has no in-place append, so growth always means a fresh Write.
func runAddNetwork(ctx *loccontext.Context, args []string) error {
	fs := flag.NewFlagSet("add-network", flag.ExitOnError)
	in := fs.String("in", "", "existing database to extend")
	out := fs.String("out", "", "output file path")
	cidr := fs.String("cidr", "", "network in CIDR notation")
	countryCode := fs.String("country", "", "two-letter country code")
	asn := fs.Uint("asn", 0, "autonomous system number")
	flagsVal := fs.Uint("flags", 0, "policy flags bitset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" || *cidr == "" {
		return fmt.Errorf("add-network: -in, -out, and -cidr are required")
	}

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	db, err := reader.Open(f, info.Size(), reader.WithContext(ctx))
	if err != nil {
		return err
	}

	w := writer.New(writer.WithContext(ctx))
	if err := w.SetVendor(db.Vendor()); err != nil {
		return err
	}
	if err := w.SetDescription(db.Description()); err != nil {
		return err
	}
	if err := w.SetLicense(db.License()); err != nil {
		return err
	}
	for _, a := range db.EnumerateASes("") {
		if _, err := w.AddAS(a.Number, db.ASName(a)); err != nil {
			return err
		}
	}
	existing, err := db.EnumerateNetworks("", nil, nil)
	if err != nil {
		return err
	}
	for _, n := range existing {
		if _, err := w.AddNetwork(n.String(), n.CountryCodeString(), n.ASN, n.Flags); err != nil {
			return err
		}
	}
	if _, err := w.AddNetwork(*cidr, *countryCode, uint32(*asn), network.Flags(*flagsVal)); err != nil {
		return err
	}
	return writeToFile(w, *out)
}

func runLookup(ctx *loccontext.Context, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	dbPath := fs.String("db", "", "database file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" || fs.NArg() != 1 {
		return fmt.Errorf("lookup: -db and a single address argument are required")
	}

	db, closeFn, err := openDB(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer closeFn()

	addr, err := parseAddress(fs.Arg(0))
	if err != nil {
		return err
	}
	n, err := db.Lookup(addr)
	if err != nil {
		return err
	}
	fmt.Printf("%s\tcountry=%s\tasn=%d\tflags=%d\n", n.String(), n.CountryCodeString(), n.ASN, n.Flags)
	return nil
}

func runDump(ctx *loccontext.Context, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	dbPath := fs.String("db", "", "database file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return fmt.Errorf("dump: -db is required")
	}

	db, closeFn, err := openDB(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer closeFn()

	fmt.Printf("vendor=%q description=%q license=%q\n", db.Vendor(), db.Description(), db.License())
	for _, a := range db.EnumerateASes("") {
		fmt.Printf("AS%d\t%s\n", a.Number, db.ASName(a))
	}
	networks, err := db.EnumerateNetworks("", nil, nil)
	if err != nil {
		return err
	}
	for _, n := range networks {
		fmt.Printf("%s\tcountry=%s\tasn=%d\n", n.String(), n.CountryCodeString(), n.ASN)
	}
	return nil
}

func populate(w *writer.Writer, ases, countries, networks repeatedFlag) error {
	for _, spec := range ases {
		parts := strings.SplitN(spec, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid -as %q, want NUMBER=NAME", spec)
		}
		number, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid -as %q: %w", spec, err)
		}
		if _, err := w.AddAS(uint32(number), parts[1]); err != nil {
			return err
		}
	}
	for _, spec := range countries {
		parts := strings.SplitN(spec, ",", 3)
		if len(parts) != 3 {
			return fmt.Errorf("invalid -country %q, want CODE,CONTINENT,NAME", spec)
		}
		if _, err := w.AddCountry(parts[0], parts[1], parts[2]); err != nil {
			return err
		}
	}
	for _, spec := range networks {
		parts := strings.SplitN(spec, ",", 4)
		if len(parts) != 4 {
			return fmt.Errorf("invalid -network %q, want CIDR,COUNTRY,ASN,FLAGS", spec)
		}
		asn, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid -network %q: %w", spec, err)
		}
		flagBits, err := strconv.ParseUint(parts[3], 10, 16)
		if err != nil {
			return fmt.Errorf("invalid -network %q: %w", spec, err)
		}
		if _, err := w.AddNetwork(parts[0], parts[1], uint32(asn), network.Flags(flagBits)); err != nil {
			return err
		}
	}
	return nil
}

// writeToFile serializes w to a temporary file in the same directory as
// path and renames it into place, so a reader never observes a
// partially-written database at path.
func writeToFile(w *writer.Writer, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := w.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func openDB(ctx *loccontext.Context, path string) (*reader.DB, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	db, err := reader.Open(f, info.Size(), reader.WithContext(ctx))
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return db, func() { f.Close() }, nil
}

func parseAddress(s string) (address.Address, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return address.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return address.FromNetIP(ip)
}
