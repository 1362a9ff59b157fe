// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/common/expfmt"

	"github.com/tokenledger/spstore/crowdsale"
	"github.com/tokenledger/spstore/digest"
	"github.com/tokenledger/spstore/state"
	"github.com/tokenledger/spstore/storage"
)

var (
	errMissingArgument = errors.New("missing argument")
	errNoSuchCommand   = errors.New("no such command")
)

// setup command handler
//
// commands that need neither the configuration file nor any database
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "version", "v":
		fmt.Printf("%s\n", version)

	case "help", "h", "?":
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                         (h)      - display this message\n\n")
		fmt.Printf("  version                      (v)      - display version sting\n\n")
		fmt.Printf("  config-test                  (cfg)    - just check the configuration file\n\n")
		fmt.Printf("  watermark                    (wm)     - last fully processed block\n\n")
		fmt.Printf("  properties                   (props)  - dump all properties as JSON lines\n\n")
		fmt.Printf("  property ID                  (p)      - show one property\n\n")
		fmt.Printf("  find-tx TXID                 (tx)     - show the property created by a transaction\n\n")
		fmt.Printf("  rollback ANCESTOR BLOCK...   (pop)    - undo blocks, newest first, back to ANCESTOR\n\n")
		fmt.Printf("  crowdsales                   (crowds) - list the live crowdsales\n\n")
		fmt.Printf("  is-purchase TXID ADDRESS     (ip)     - find a crowdsale contribution\n\n")
		fmt.Printf("  alliances                    (al)     - dump all alliances\n\n")
		fmt.Printf("  votes                        (vt)     - dump all vote records\n\n")
		fmt.Printf("  tx-records                   (xr)     - dump all cross-ledger transaction records\n\n")
		fmt.Printf("  stats                                 - database counters and metrics\n\n")

	default:
		return false // defer processing until database is loaded
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		printJson(os.Stdout, "", options)

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// live crowdsale summary
type crowdInfo struct {
	Address      string `json:"address"`
	PropertyID   uint32 `json:"propertyId"`
	Raised       int64  `json:"raised"`
	Deadline     int64  `json:"deadline"`
	MaxTokens    int64  `json:"maxTokens"`
	UserTokens   int64  `json:"userTokens"`
	IssuerTokens int64  `json:"issuerTokens"`
	Purchases    int    `json:"purchases"`
}

// store read/write counters
type storeInfo struct {
	Path   string `json:"path"`
	Reads  uint64 `json:"reads"`
	Writes uint64 `json:"writes"`
}

// data command handler
// all the databases are open so these commands can access and/or
// change them
func processDataCommand(w io.Writer, log *logger.L, arguments []string, ctx *state.Context) error {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "watermark", "wm":
		block, ok, err := ctx.Resume()
		if nil != err {
			return err
		}
		if !ok {
			fmt.Fprintf(w, "no watermark\n")
			return nil
		}
		fmt.Fprintf(w, "%s\n", block)

	case "properties", "props":
		return ctx.Registry().PrintAll(w)

	case "property", "p":
		if len(arguments) < 1 {
			return errMissingArgument
		}
		id, err := strconv.ParseUint(arguments[0], 10, 32)
		if nil != err {
			return err
		}
		entry, err := ctx.Registry().Get(uint32(id))
		if nil != err {
			return err
		}
		printJson(w, fmt.Sprintf("property %d", id), entry)

	case "find-tx", "tx":
		if len(arguments) < 1 {
			return errMissingArgument
		}
		txid, err := digest.FromString(arguments[0])
		if nil != err {
			return err
		}
		id, err := ctx.Registry().FindByTx(txid)
		if nil != err {
			return err
		}
		entry, err := ctx.Registry().Get(id)
		if nil != err {
			return err
		}
		printJson(w, fmt.Sprintf("property %d", id), entry)

	case "rollback", "pop":
		if len(arguments) < 2 {
			return errMissingArgument
		}
		ancestor, err := digest.FromString(arguments[0])
		if nil != err {
			return err
		}
		blocks := make([]digest.Digest, 0, len(arguments)-1)
		for _, s := range arguments[1:] {
			block, err := digest.FromString(s)
			if nil != err {
				return err
			}
			blocks = append(blocks, block)
		}
		log.Warnf("rollback: %d blocks to: %s", len(blocks), ancestor)
		n, err := ctx.Rollback(blocks, ancestor)
		if nil != err {
			return err
		}
		fmt.Fprintf(w, "rolled back: %d blocks  properties: %d\n", len(blocks), n)

	case "crowdsales", "crowds":
		crowds := []crowdInfo{}
		err := ctx.Crowds().Map(func(address string, crowd *crowdsale.Crowd) error {
			crowds = append(crowds, crowdInfo{
				Address:      address,
				PropertyID:   crowd.PropertyID,
				Raised:       crowd.Raised(),
				Deadline:     crowd.Deadline,
				MaxTokens:    crowd.MaxTokens,
				UserTokens:   crowd.UserCreated(),
				IssuerTokens: crowd.IssuerCreated(),
				Purchases:    len(crowd.Database()),
			})
			return nil
		})
		if nil != err {
			return err
		}
		printJson(w, "crowdsales", crowds)

	case "is-purchase", "ip":
		if len(arguments) < 2 {
			return errMissingArgument
		}
		txid, err := digest.FromString(arguments[0])
		if nil != err {
			return err
		}
		record, ok, err := ctx.Crowds().IsPurchase(txid, arguments[1])
		if nil != err {
			return err
		}
		if !ok {
			fmt.Fprintf(w, "not a purchase\n")
			return nil
		}
		printJson(w, "purchase", record)

	case "alliances", "al":
		return ctx.Alliances().PrintAll(w)

	case "votes", "vt":
		return ctx.Votes().PrintAll(w)

	case "tx-records", "xr":
		records, err := ctx.TxRecords().All()
		if nil != err {
			return err
		}
		printJson(w, "tx records", records)

	case "stats":
		stores := []storeInfo{}
		for _, s := range []*storage.Store{
			ctx.Registry().Store(),
			ctx.Alliances().Store(),
			ctx.Votes().Store(),
			ctx.TxRecords().Store(),
		} {
			stores = append(stores, storeInfo{
				Path:   s.Path(),
				Reads:  s.Reads(),
				Writes: s.Writes(),
			})
		}
		printJson(w, "stores", stores)

		families, err := ctx.Gatherer().Gather()
		if nil != err {
			return err
		}
		for _, f := range families {
			if _, err := expfmt.MetricFamilyToText(w, f); nil != err {
				return err
			}
		}

	default:
		return fmt.Errorf("%w: %q", errNoSuchCommand, command)
	}

	return nil
}

