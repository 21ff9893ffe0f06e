package modules

// companyFixture is seed test data carried forward from the reference
// implementation's mock company table, used by the default M01 data source
// and by the end-to-end scenario tests across the module suite.
type companyFixture struct {
	Name           string
	Ticker         string
	Exchange       string
	IsPublic       bool
	HQCity         string
	HQState        string
	HQCountry      string
	Industry       string
	Vertical       string
	SubVertical    string
	BusinessModel  string
	EmployeeCount  int
	StoreCount     int
	FoundedYear    int
	Description    string
	Brands         []string
	SearchProvider string // used by M02 default fixture

	// Financial fields, used by M04 and M08. Revenue3Y/NetIncome3Y are
	// ordered oldest-to-newest (index 0 = two years ago, index 2 = most
	// recent fiscal year).
	Revenue3Y      [3]float64
	NetIncome3Y    [3]float64
	EBITDAMargin   float64
	EcommerceShare float64
}

var companyFixtures = map[string]companyFixture{
	"costco.com": {
		Name: "Costco Wholesale Corporation", Ticker: "COST", Exchange: "NASDAQ", IsPublic: true,
		HQCity: "Issaquah", HQState: "WA", HQCountry: "USA",
		Industry: "Warehouse Club Retail", Vertical: "Commerce", SubVertical: "Wholesale-Membership Retail",
		BusinessModel: "B2C", EmployeeCount: 316000, StoreCount: 891, FoundedYear: 1983,
		Description:    "Membership-only warehouse club offering bulk groceries, electronics, and general merchandise.",
		Brands:         []string{"Costco", "Kirkland Signature", "Costco Business Center"},
		SearchProvider: "native",
		Revenue3Y:      [3]float64{222_730_000_000, 242_290_000_000, 254_450_000_000},
		NetIncome3Y:    [3]float64{5_844_000_000, 6_292_000_000, 7_367_000_000},
		EBITDAMargin:   0.045,
		EcommerceShare: 0.08,
	},
	"sallybeauty.com": {
		Name: "Sally Beauty Holdings, Inc.", Ticker: "SBH", Exchange: "NYSE", IsPublic: true,
		HQCity: "Denton", HQState: "TX", HQCountry: "USA",
		Industry: "Specialty Beauty Retail & Distribution", Vertical: "Commerce", SubVertical: "Specialty Beauty Retail",
		BusinessModel: "B2C", EmployeeCount: 17000, StoreCount: 3300, FoundedYear: 1964,
		Description:    "Specialty retailer and distributor of professional beauty supplies, searching for a new site search provider.",
		Brands:         []string{"Sally Beauty", "CosmoProf"},
		SearchProvider: "competitor",
		Revenue3Y:      [3]float64{3_825_000_000, 3_748_000_000, 3_650_000_000},
		NetIncome3Y:    [3]float64{200_000_000, 188_000_000, 120_000_000},
		EBITDAMargin:   0.11,
		EcommerceShare: 0.18,
	},
	"mercedes-benz.com": {
		Name: "Mercedes-Benz Group AG", Ticker: "MBG", Exchange: "XETRA", IsPublic: true,
		HQCity: "Stuttgart", HQState: "", HQCountry: "Germany",
		Industry: "Automotive Manufacturing", Vertical: "Commerce", SubVertical: "Automotive OEM",
		BusinessModel: "B2C", EmployeeCount: 172000, StoreCount: 0, FoundedYear: 1926,
		Description:    "Premium automotive manufacturer producing passenger cars and vans.",
		Brands:         []string{"Mercedes-Benz", "AMG", "Maybach"},
		SearchProvider: "algolia",
		Revenue3Y:      [3]float64{150_017_000_000, 149_967_000_000, 145_430_000_000},
		NetIncome3Y:    [3]float64{14_809_000_000, 14_528_000_000, 10_433_000_000},
		EBITDAMargin:   0.135,
		EcommerceShare: 0.04,
	},
}

// lookupFixture returns the seeded fixture for a normalized domain and
// whether it exists. Unknown domains (e.g. example-private.com) fall
// through to heuristic domain-derived extraction, mirroring the reference
// module's private-company fallback path.
func lookupFixture(domain string) (companyFixture, bool) {
	f, ok := companyFixtures[domain]
	return f, ok
}
