package vision

import "strings"

// Categories is the Craigslist for-sale category list offered by the
// web form and used by the classifier. Single source of truth.
var Categories = []string{
	"antiques",
	"appliances",
	"arts & crafts",
	"atvs, utvs, snowmobiles",
	"auto parts",
	"auto wheels & tires",
	"aviation",
	"baby & kid stuff",
	"barter",
	"bicycle parts",
	"bicycles",
	"boat parts",
	"boats",
	"books & magazines",
	"business/commercial",
	"cars & trucks ($5)",
	"cds / dvds / vhs",
	"cell phones",
	"clothing & accessories",
	"collectibles",
	"computer parts",
	"computers",
	"electronics",
	"farm & garden",
	"free stuff",
	"furniture",
	"garage & moving sales",
	"general for sale",
	"health and beauty",
	"heavy equipment",
	"household items",
	"jewelry",
	"materials",
	"motorcycle parts",
	"motorcycles/scooters ($5)",
	"musical instruments",
	"photo/video",
	"rvs ($5)",
	"sporting goods",
	"tickets",
	"tools",
	"toys & games",
	"trailers",
	"video gaming",
	"wanted",
}

// matchCategory maps a model answer back onto the canonical list.
func matchCategory(answer string) (string, bool) {
	answer = strings.ToLower(strings.TrimSpace(answer))
	for _, c := range Categories {
		if strings.ToLower(c) == answer {
			return c, true
		}
	}
	return "", false
}

// keywordCategory is the fallback when the classifier gives nothing
// usable. Coarse keyword buckets, then "general for sale".
func keywordCategory(label string) string {
	l := strings.ToLower(label)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(l, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("chair", "sofa", "table", "dresser", "stool", "couch", "desk", "bed", "cabinet"):
		return "furniture"
	case has("iphone", "samsung", "pixel", "android", "smartphone", "cell"):
		return "cell phones"
	case has("laptop", "macbook", "surface", "notebook"):
		return "computers"
	case has("camera", "lens", "dslr", "mirrorless", "tripod"):
		return "photo/video"
	case has("guitar", "piano", "keyboard", "drum", "synth"):
		return "musical instruments"
	case has("ps5", "xbox", "nintendo", "switch", "gaming"):
		return "video gaming"
	case has("microwave", "fridge", "refrigerator", "washer", "dryer", "oven", "dishwasher"):
		return "appliances"
	case has("hammer", "drill", "saw", "wrench", "tool"):
		return "tools"
	case has("speaker", "headphones", "tv", "monitor", "tablet", "smartwatch"):
		return "electronics"
	default:
		return "general for sale"
	}
}
