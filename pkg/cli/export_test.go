package cli

var (
	LoadCases           = loadCases
	GetIndexConfig      = getIndexConfig
	PrintRecommendation = printRecommendation
)
