// Command wdshell is a minimal example program exercising the classic
// driverclient against a running driver server (geckodriver, chromedriver,
// ...), mirroring the teacher's examples/ convention: connect, run a
// handful of commands, report results, exit.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/imichael2e2/wdc/control"
	"github.com/imichael2e2/wdc/driverclient"
	"github.com/imichael2e2/wdc/wdlog"
)

func main() {
	vendorFlag := flag.String("vendor", "none", "driver vendor: firefox, chrome, or none")
	url := flag.String("url", "about:blank", "URL to navigate to")
	selector := flag.String("css", "", "CSS selector to look up after navigating, if set")
	flag.Parse()

	cfg := control.FromEnv()
	logger := wdlog.New(os.Stderr, wdlog.Default().GetLevel(), true)

	vendor := driverclient.VendorNone
	switch *vendorFlag {
	case "firefox":
		vendor = driverclient.VendorGecko
	case "chrome":
		vendor = driverclient.VendorChrome
	}

	client, err := driverclient.Init(cfg.Host, cfg.Port, vendor, cfg.ReadyTimeout, logger)
	if err != nil {
		log.Fatalf("wdshell: init: %v", err)
	}
	defer client.Close()
	client.SetTimeouts(cfg.ReadTimeout, cfg.WriteTimeout)

	fmt.Printf("session: %s\n", client.SessionID())

	if err := client.Navigate(*url); err != nil {
		log.Fatalf("wdshell: navigate: %v", err)
	}

	got, err := client.CurrentURL()
	if err != nil {
		log.Fatalf("wdshell: current url: %v", err)
	}
	fmt.Printf("url: %s\n", got)

	if *selector != "" {
		elemID, err := client.FindElemCSS(*selector)
		if err != nil {
			log.Fatalf("wdshell: find elem: %v", err)
		}
		fmt.Printf("element: %s\n", elemID)
	}

	if cfg.PersistDir != "" {
		shotPath := filepath.Join(cfg.PersistDir, "screenshot.b64")
		if err := client.ScreenshotToFile(shotPath); err != nil {
			log.Fatalf("wdshell: screenshot to file: %v", err)
		}
		fmt.Printf("screenshot: %s\n", shotPath)
	}
}
