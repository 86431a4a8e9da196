package synthetic

import (
	"hash/fnv"

	"github.com/shopspring/decimal"
)

// profile is the seed for one symbol. Money values are whole USD.
type profile struct {
	Name        string
	CIK         string
	Sector      string
	Industry    string
	Address     string
	Description string
	Revenue     int64
	MarketCap   int64
	EBITDA      int64
	Shares      int64
	EPS         string
	PERatio     string
	High52      string
	Low52       string
}

var profiles = map[string]profile{
	"AAPL": {
		Name: "Apple Inc.", CIK: "320193", Sector: "TECHNOLOGY", Industry: "CONSUMER ELECTRONICS",
		Address:     "ONE APPLE PARK WAY, CUPERTINO, CA, UNITED STATES, 95014",
		Description: "Apple Inc. designs, manufactures, and markets smartphones, personal computers, tablets, wearables, and accessories worldwide.",
		Revenue:     383285000000, MarketCap: 3000000000000, EBITDA: 120000000000, Shares: 15300000000,
		EPS: "6.15", PERatio: "28.5", High52: "237.23", Low52: "164.08",
	},
	"GOOGL": {
		Name: "Alphabet Inc.", CIK: "1652044", Sector: "TECHNOLOGY", Industry: "INTERNET CONTENT & INFORMATION",
		Address:     "1600 AMPHITHEATRE PARKWAY, MOUNTAIN VIEW, CA, UNITED STATES, 94043",
		Description: "Alphabet Inc. provides online advertising services through Google Services, Google Cloud, and Other Bets segments.",
		Revenue:     282836000000, MarketCap: 1800000000000, EBITDA: 80000000000, Shares: 12600000000,
		EPS: "5.61", PERatio: "25.2", High52: "191.75", Low52: "83.34",
	},
	"MSFT": {
		Name: "Microsoft Corporation", CIK: "789019", Sector: "TECHNOLOGY", Industry: "SOFTWARE-INFRASTRUCTURE",
		Address:     "ONE MICROSOFT WAY, REDMOND, WA, UNITED STATES, 98052",
		Description: "Microsoft Corporation develops, licenses, and supports software, services, devices, and solutions worldwide.",
		Revenue:     211915000000, MarketCap: 2800000000000, EBITDA: 100000000000, Shares: 7430000000,
		EPS: "11.06", PERatio: "32.1", High52: "468.35", Low52: "309.45",
	},
	"AMZN": {
		Name: "Amazon.com Inc.", CIK: "1018724", Sector: "CONSUMER DISCRETIONARY", Industry: "INTERNET RETAIL",
		Address:     "410 TERRY AVENUE NORTH, SEATTLE, WA, UNITED STATES, 98109",
		Description: "Amazon.com Inc. engages in the retail sale of consumer products and subscriptions in North America and internationally.",
		Revenue:     574785000000, MarketCap: 1500000000000, EBITDA: 60000000000, Shares: 10600000000,
		EPS: "2.90", PERatio: "45.8", High52: "189.77", Low52: "101.15",
	},
	"TSLA": {
		Name: "Tesla Inc.", CIK: "1318605", Sector: "CONSUMER DISCRETIONARY", Industry: "AUTO MANUFACTURERS",
		Address:     "1 TESLA ROAD, AUSTIN, TX, UNITED STATES, 78725",
		Description: "Tesla Inc. designs, develops, manufactures, leases, and sells electric vehicles, and energy generation and storage systems.",
		Revenue:     96773000000, MarketCap: 800000000000, EBITDA: 15000000000, Shares: 3170000000,
		EPS: "3.62", PERatio: "65.2", High52: "299.29", Low52: "138.80",
	},
	"META": {
		Name: "Meta Platforms Inc.", CIK: "1326801", Sector: "TECHNOLOGY", Industry: "INTERNET CONTENT & INFORMATION",
		Address:     "1 META WAY, MENLO PARK, CA, UNITED STATES, 94025",
		Description: "Meta Platforms Inc. develops products that help people connect and share through mobile devices, personal computers, and virtual reality headsets.",
		Revenue:     134902000000, MarketCap: 900000000000, EBITDA: 40000000000, Shares: 2700000000,
		EPS: "12.64", PERatio: "22.5", High52: "531.49", Low52: "185.82",
	},
	"NVDA": {
		Name: "NVIDIA Corporation", CIK: "1045810", Sector: "TECHNOLOGY", Industry: "SEMICONDUCTORS",
		Address:     "2788 SAN TOMAS EXPRESSWAY, SANTA CLARA, CA, UNITED STATES, 95051",
		Description: "NVIDIA Corporation operates as a computing company in two segments, Graphics and Compute & Networking.",
		Revenue:     60922000000, MarketCap: 1200000000000, EBITDA: 30000000000, Shares: 2500000000,
		EPS: "4.44", PERatio: "35.8", High52: "974.00", Low52: "200.00",
	},
	"NFLX": {
		Name: "Netflix Inc.", CIK: "1065280", Sector: "COMMUNICATION SERVICES", Industry: "ENTERTAINMENT",
		Address:     "100 WINCHESTER CIRCLE, LOS GATOS, CA, UNITED STATES, 95032",
		Description: "Netflix Inc. provides entertainment services, offering TV series, documentaries, feature films, and mobile games.",
		Revenue:     33723000000, MarketCap: 200000000000, EBITDA: 8000000000, Shares: 440000000,
		EPS: "12.03", PERatio: "28.9", High52: "639.00", Low52: "379.43",
	},
	"AMD": {
		Name: "Advanced Micro Devices Inc.", CIK: "2488", Sector: "TECHNOLOGY", Industry: "SEMICONDUCTORS",
		Address:     "2485 AUGUSTINE DRIVE, SANTA CLARA, CA, UNITED STATES, 95054",
		Description: "Advanced Micro Devices Inc. operates as a semiconductor company worldwide.",
		Revenue:     22680000000, MarketCap: 300000000000, EBITDA: 12000000000, Shares: 1600000000,
		EPS: "0.53", PERatio: "25.1", High52: "227.30", Low52: "68.35",
	},
	"INTC": {
		Name: "Intel Corporation", CIK: "50863", Sector: "TECHNOLOGY", Industry: "SEMICONDUCTORS",
		Address:     "2200 MISSION COLLEGE BOULEVARD, SANTA CLARA, CA, UNITED STATES, 95054",
		Description: "Intel Corporation designs, manufactures, and sells computer components and related products worldwide.",
		Revenue:     54228000000, MarketCap: 200000000000, EBITDA: 15000000000, Shares: 4200000000,
		EPS: "1.05", PERatio: "15.2", High52: "51.28", Low52: "24.73",
	},
}

// lookup returns the seed for symbol. Unknown symbols get the default profile
// with revenue scaled between 0.5x and 1.49x by a stable hash of the symbol.
func lookup(symbol string) profile {
	if p, ok := profiles[symbol]; ok {
		return p
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	scale := decimal.NewFromInt(int64(50 + h.Sum32()%100)).Div(decimal.NewFromInt(100))

	return profile{
		Name:        symbol + " Inc.",
		CIK:         "0000000000",
		Sector:      "TECHNOLOGY",
		Industry:    "SOFTWARE",
		Address:     "N/A",
		Description: "Placeholder profile for " + symbol + ".",
		Revenue:     decimal.NewFromInt(100000000000).Mul(scale).Round(0).IntPart(),
		MarketCap:   1000000000000,
		EBITDA:      50000000000,
		Shares:      1000000000,
		EPS:         "4.50",
		PERatio:     "25.5",
		High52:      "160.00",
		Low52:       "120.00",
	}
}

// Known reports whether symbol has a dedicated profile.
func Known(symbol string) bool {
	_, ok := profiles[symbol]
	return ok
}
