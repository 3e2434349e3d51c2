package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/arcsign/btcpsbt/pkg/bip32"
	"github.com/arcsign/btcpsbt/pkg/curve"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "derive":
		handleDerive(os.Args[2:])
	case "version":
		fmt.Printf("btcwallet v%s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("btcwallet: a thin demo shell over pkg/bip32")
	fmt.Println()
	fmt.Println("usage:")
	fmt.Println("  btcwallet derive --seed <hex> --path <m/44'/0'/0'> [--testnet]")
	fmt.Println("  btcwallet version")
}

func handleDerive(args []string) {
	var seedHex, pathStr string
	testnet := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--seed":
			i++
			if i >= len(args) {
				fail("--seed requires a value")
			}
			seedHex = args[i]
		case "--path":
			i++
			if i >= len(args) {
				fail("--path requires a value")
			}
			pathStr = args[i]
		case "--testnet":
			testnet = true
		default:
			fail(fmt.Sprintf("unrecognized flag: %s", args[i]))
		}
	}
	if seedHex == "" || pathStr == "" {
		fail("both --seed and --path are required")
	}

	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		fail(fmt.Sprintf("invalid seed hex: %v", err))
	}

	network := bip32.Mainnet
	if testnet {
		network = bip32.Testnet
	}

	backend := curve.NewBtcecBackend()
	master, err := bip32.NewMasterKey(seed, network, bip32.HintLegacy, backend)
	if err != nil {
		fail(fmt.Sprintf("deriving master key: %v", err))
	}

	path, err := bip32.ParsePath(pathStr)
	if err != nil {
		fail(fmt.Sprintf("parsing path: %v", err))
	}

	derived, err := master.DerivePath(path)
	if err != nil {
		fail(fmt.Sprintf("deriving path: %v", err))
	}

	xpriv, err := derived.Serialize()
	if err != nil {
		fail(fmt.Sprintf("serializing extended private key: %v", err))
	}
	xpub, err := derived.ToXPub()
	if err != nil {
		fail(fmt.Sprintf("deriving extended public key: %v", err))
	}
	xpubStr, err := xpub.Serialize()
	if err != nil {
		fail(fmt.Sprintf("serializing extended public key: %v", err))
	}

	fmt.Printf("path:  %s\n", path.String())
	fmt.Printf("xpriv: %s\n", xpriv)
	fmt.Printf("xpub:  %s\n", xpubStr)
}

func fail(message string) {
	fmt.Fprintln(os.Stderr, "error:", message)
	os.Exit(1)
}
