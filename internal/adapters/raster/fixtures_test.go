package raster

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const testWKT = `PROJCS["WGS 84 / UTM zone 33N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]]]]`

// bilFixture describes a single band 16-bit BIL on disk
type bilFixture struct {
	name      string
	width     int
	height    int
	samples   []int16
	bigEndian bool
	nodata    string
	prj       bool
	ulx, uly  float64
	dim       float64
}

func (f bilFixture) write(t *testing.T, dir string) string {
	t.Helper()

	var order binary.ByteOrder = binary.LittleEndian
	byteOrder := "I"
	if f.bigEndian {
		order = binary.BigEndian
		byteOrder = "M"
	}

	data := make([]byte, 2*len(f.samples))
	for i, s := range f.samples {
		order.PutUint16(data[2*i:], uint16(s))
	}
	path := filepath.Join(dir, f.name+".bil")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write bil: %v", err)
	}

	hdr := fmt.Sprintf("BYTEORDER %s\nLAYOUT BIL\nNROWS %d\nNCOLS %d\nNBANDS 1\nNBITS 16\nPIXELTYPE SIGNEDINT\nULXMAP %g\nULYMAP %g\nXDIM %g\nYDIM %g\n",
		byteOrder, f.height, f.width, f.ulx, f.uly, f.dim, f.dim)
	if f.nodata != "" {
		hdr += "NODATA " + f.nodata + "\n"
	}
	if err := os.WriteFile(filepath.Join(dir, f.name+".hdr"), []byte(hdr), 0644); err != nil {
		t.Fatalf("failed to write hdr: %v", err)
	}

	if f.prj {
		if err := os.WriteFile(filepath.Join(dir, f.name+".prj"), []byte(testWKT+"\n"), 0644); err != nil {
			t.Fatalf("failed to write prj: %v", err)
		}
	}
	return path
}

// tenByTen is a 10x10 grid covering (0,0)-(100,100) at 10 m with -32768 on
// the diagonal
func tenByTen(name string) bilFixture {
	samples := make([]int16, 100)
	for i := range samples {
		samples[i] = int16(i*10 - 300)
	}
	for i := 0; i < 10; i++ {
		samples[i*10+i] = -32768
	}
	return bilFixture{
		name:    name,
		width:   10,
		height:  10,
		samples: samples,
		nodata:  "-32768",
		prj:     true,
		ulx:     5,
		uly:     95,
		dim:     10,
	}
}
