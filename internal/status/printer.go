package status

import (
	"sync"
	"time"
)

// PrinterStatusChangeCallback is called when printer reachability changes.
type PrinterStatusChangeCallback func(connected bool)

var (
	mu               sync.RWMutex
	printerConnected bool
	lastPrintAt      time.Time
	printCount       int
	printerCallbacks []PrinterStatusChangeCallback
)

// SetPrinterConnected records whether the last transport attempt reached the
// printer and notifies registered callbacks on change.
func SetPrinterConnected(connected bool) {
	mu.Lock()
	previous := printerConnected
	printerConnected = connected
	callbacks := make([]PrinterStatusChangeCallback, len(printerCallbacks))
	copy(callbacks, printerCallbacks)
	mu.Unlock()

	if previous != connected {
		for _, callback := range callbacks {
			if callback != nil {
				callback(connected)
			}
		}
	}
}

// IsPrinterConnected returns the printer reachability of the last attempt.
func IsPrinterConnected() bool {
	mu.RLock()
	defer mu.RUnlock()
	return printerConnected
}

// RecordPrint notes a successful print for the status endpoint.
func RecordPrint() {
	mu.Lock()
	defer mu.Unlock()
	lastPrintAt = time.Now()
	printCount++
}

// LastPrint returns the time of the last successful print and the total
// count since startup.
func LastPrint() (time.Time, int) {
	mu.RLock()
	defer mu.RUnlock()
	return lastPrintAt, printCount
}

// RegisterPrinterStatusChangeCallback registers a callback for reachability
// changes.
func RegisterPrinterStatusChangeCallback(callback PrinterStatusChangeCallback) {
	mu.Lock()
	defer mu.Unlock()
	printerCallbacks = append(printerCallbacks, callback)
}
