//go:build !gdal

package raster

// platformDrivers is empty unless the binary is built with -tags gdal
func platformDrivers() []Driver {
	return nil
}
