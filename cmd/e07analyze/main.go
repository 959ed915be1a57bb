// Command e07analyze processes binary Saleae digital capture files of
// E07-400MM bus traffic and prints the decoded register transactions.
// Useful for verifying that every status and FIFO access on the wire
// carries the burst bit the clone demands.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/soypat/saleae"
	"github.com/soypat/saleae/analyzers"
	"golang.org/x/exp/constraints"

	"github.com/e07rf/e07x/cc1101"
)

type Filter struct {
	OmitRead    bool
	OmitWrite   bool
	OmitStrobes bool
	OnlyBad     bool // keep only quirk violations: non-burst status/FIFO reads
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "e07analyze - Decode Saleae digital captures of E07-400MM SPI transactions.\n\tUsage:\n")
		flag.PrintDefaults()
	}
	mosi := flag.String("f-mosi", "digital_1.bin", "Input filename: SPI MOSI data.")
	miso := flag.String("f-miso", "", "Input filename: SPI MISO data. Defaults to the MOSI file (single-channel capture).")
	cs := flag.String("f-cs", "digital_0.bin", "Input filename: SPI CS data.")
	clk := flag.String("f-clk", "digital_2.bin", "Input filename: SPI CLK data.")
	output := flag.String("o-cmd", "commands.txt", "Output filename of decoded register transactions.")
	var f Filter
	flag.BoolVar(&f.OmitRead, "omit-read", false, "Omit register reads in output.")
	flag.BoolVar(&f.OmitWrite, "omit-write", false, "Omit register writes in output.")
	flag.BoolVar(&f.OmitStrobes, "omit-strobe", false, "Omit command strobes in output.")
	flag.BoolVar(&f.OnlyBad, "only-bad", false, "Keep only status/FIFO reads missing the burst bit.")
	flag.Parse()
	if f.OmitRead && f.OmitWrite {
		log.Fatal("cannot omit both read and write commands")
	}
	if *miso == "" {
		*miso = *mosi
	}
	start := time.Now()
	if err := f.run(*mosi, *miso, *cs, *clk, *output); err != nil {
		log.Fatal(err.Error())
	}
	log.Println("finished in", time.Since(start))
}

func (f *Filter) run(mosi, miso, cs, clk, output string) error {
	accesses, err := processSpiFiles(mosi, miso, cs, clk)
	if err != nil {
		return err
	}
	fp, err := os.Create(output)
	if err != nil {
		return err
	}
	defer fp.Close()

	for _, a := range accesses {
		if f.skip(a) {
			continue
		}
		if _, err := fmt.Fprintf(fp, "cmd×%2d %s\n", a.Num, a.Access.String()); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filter) skip(a accessTx) bool {
	switch {
	case f.OnlyBad:
		return !a.Access.QuirkViolation()
	case a.Access.Strobe:
		return f.OmitStrobes
	case a.Access.Write:
		return f.OmitWrite
	default:
		return f.OmitRead
	}
}

func processSpiFiles(fmosi, fmiso, fcs, fclk string) ([]accessTx, error) {
	mosi, err := opendigital(fmosi)
	if err != nil {
		return nil, err
	}
	miso, err := opendigital(fmiso)
	if err != nil {
		return nil, err
	}
	cs, err := opendigital(fcs)
	if err != nil {
		return nil, err
	}
	clk, err := opendigital(fclk)
	if err != nil {
		return nil, err
	}
	spi := analyzers.SPI{}
	txs, _ := spi.Scan(clk, cs, mosi, miso)
	return collapse(txs), nil
}

func opendigital(filename string) (*saleae.DigitalFile, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return saleae.ReadDigitalFile(fp)
}

// Access is one chip-select frame decoded against the register map.
type Access struct {
	Write  bool
	Burst  bool
	Strobe bool
	Addr   uint8
	Data   []byte
}

// AccessFromBytes decodes one frame from the MOSI bytes plus the MISO
// bytes of the same frame (reads answer on MISO).
func AccessFromBytes(sdo, sdi []byte) (a Access) {
	if len(sdo) == 0 {
		return a
	}
	hdr := sdo[0]
	a.Addr = hdr & cc1101.RegMask
	a.Write = hdr&cc1101.CmdRead == 0
	a.Burst = hdr&cc1101.CmdBurst != 0
	a.Strobe = a.Write && !a.Burst && a.Addr >= cc1101.SRES && a.Addr <= cc1101.SNOP
	if a.Strobe {
		return a
	}
	if a.Write {
		a.Data = sdo[1:]
	} else if len(sdi) > 1 {
		a.Data = sdi[1:]
	}
	return a
}

// QuirkViolation reports a status-range or FIFO read without the burst
// bit, which the clone answers with stale data.
func (a Access) QuirkViolation() bool {
	statusRead := !a.Write && !a.Strobe && a.Addr >= cc1101.SRES
	return statusRead && !a.Burst
}

func (a Access) String() string {
	if a.Strobe {
		return fmt.Sprintf("strobe %-9s", regName(a.Addr, a))
	}
	dir := "read "
	if a.Write {
		dir = "write"
	}
	burst := "     "
	if a.Burst {
		burst = "burst"
	}
	bad := ""
	if a.QuirkViolation() {
		bad = "  QUIRK-VIOLATION"
	}
	// Long FIFO bursts wreck column alignment; cap the hex dump.
	data := a.Data[:clampLen(len(a.Data), 32)]
	ellipsis := ""
	if len(data) < len(a.Data) {
		ellipsis = "..."
	}
	return fmt.Sprintf("%s %s %-9s data=%#x%s%s", dir, burst, regName(a.Addr, a), data, ellipsis, bad)
}

type accessTx struct {
	Num    int
	Access Access
	Start  float64
}

// collapse folds runs of identical frames into one numbered entry,
// which keeps polling loops readable.
func collapse(txs []analyzers.TxSPI) (out []accessTx) {
	repeats := 1
	for i := 0; i < len(txs); i++ {
		tx := txs[i]
		a := AccessFromBytes(tx.SDO, tx.SDI)
		for j := i + 1; j < len(txs); j++ {
			next := AccessFromBytes(txs[j].SDO, txs[j].SDI)
			if !equalAccess(a, next) {
				break
			}
			repeats++
			i = j
		}
		out = append(out, accessTx{Num: repeats, Access: a, Start: tx.StartTime()})
		repeats = 1
	}
	return out
}

func equalAccess(a, b Access) bool {
	return a.Write == b.Write && a.Burst == b.Burst && a.Strobe == b.Strobe &&
		a.Addr == b.Addr && bytes.Equal(a.Data, b.Data)
}

var configNames = map[uint8]string{
	cc1101.IOCFG2:   "IOCFG2",
	cc1101.IOCFG1:   "IOCFG1",
	cc1101.IOCFG0:   "IOCFG0",
	cc1101.FIFOTHR:  "FIFOTHR",
	cc1101.SYNC1:    "SYNC1",
	cc1101.SYNC0:    "SYNC0",
	cc1101.PKTLEN:   "PKTLEN",
	cc1101.PKTCTRL1: "PKTCTRL1",
	cc1101.PKTCTRL0: "PKTCTRL0",
	cc1101.ADDR:     "ADDR",
	cc1101.CHANNR:   "CHANNR",
	cc1101.FSCTRL1:  "FSCTRL1",
	cc1101.FSCTRL0:  "FSCTRL0",
	cc1101.FREQ2:    "FREQ2",
	cc1101.FREQ1:    "FREQ1",
	cc1101.FREQ0:    "FREQ0",
	cc1101.MDMCFG4:  "MDMCFG4",
	cc1101.MDMCFG3:  "MDMCFG3",
	cc1101.MDMCFG2:  "MDMCFG2",
	cc1101.MDMCFG1:  "MDMCFG1",
	cc1101.MDMCFG0:  "MDMCFG0",
	cc1101.DEVIATN:  "DEVIATN",
	cc1101.MCSM2:    "MCSM2",
	cc1101.MCSM1:    "MCSM1",
	cc1101.MCSM0:    "MCSM0",
	cc1101.FOCCFG:   "FOCCFG",
	cc1101.AGCCTRL2: "AGCCTRL2",
	cc1101.AGCCTRL1: "AGCCTRL1",
	cc1101.AGCCTRL0: "AGCCTRL0",
	cc1101.FREND1:   "FREND1",
	cc1101.FREND0:   "FREND0",
	cc1101.FSCAL3:   "FSCAL3",
	cc1101.FSCAL2:   "FSCAL2",
	cc1101.FSCAL1:   "FSCAL1",
	cc1101.FSCAL0:   "FSCAL0",
	cc1101.TEST2:    "TEST2",
	cc1101.TEST1:    "TEST1",
	cc1101.TEST0:    "TEST0",
}

var strobeNames = map[uint8]string{
	cc1101.SRES:    "SRES",
	cc1101.SFSTXON: "SFSTXON",
	cc1101.SXOFF:   "SXOFF",
	cc1101.SCAL:    "SCAL",
	cc1101.SRX:     "SRX",
	cc1101.STX:     "STX",
	cc1101.SIDLE:   "SIDLE",
	cc1101.SWOR:    "SWOR",
	cc1101.SPWD:    "SPWD",
	cc1101.SFRX:    "SFRX",
	cc1101.SFTX:    "SFTX",
	cc1101.SWORRST: "SWORRST",
	cc1101.SNOP:    "SNOP",
}

var statusNames = map[uint8]string{
	cc1101.PARTNUM:   "PARTNUM",
	cc1101.VERSION:   "VERSION",
	cc1101.FREQEST:   "FREQEST",
	cc1101.LQIREG:    "LQI",
	cc1101.RSSIREG:   "RSSI",
	cc1101.MARCSTATE: "MARCSTATE",
	cc1101.PKTSTATUS: "PKTSTATUS",
	cc1101.TXBYTES:   "TXBYTES",
	cc1101.RXBYTES:   "RXBYTES",
}

func regName(addr uint8, a Access) string {
	var name string
	var ok bool
	switch {
	case addr == cc1101.FIFO:
		name, ok = "FIFO", true
	case addr == cc1101.PATABLE:
		name, ok = "PATABLE", true
	case a.Strobe:
		name, ok = strobeNames[addr]
	case addr >= cc1101.SRES && !a.Write:
		name, ok = statusNames[addr]
	default:
		name, ok = configNames[addr]
	}
	if !ok {
		name = fmt.Sprintf("reg%#02x", addr)
	}
	return name
}

func clampLen[T constraints.Integer](n, limit T) T {
	if n > limit {
		return limit
	}
	return n
}
