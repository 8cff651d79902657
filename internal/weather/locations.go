package weather

// Location is a fly-fishing destination served by the dashboard.
// GaugeSite is the USGS monitoring site for river stage; locations
// without a nearby gauge leave it empty.
type Location struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	GaugeSite   string  `json:"gaugeSite,omitempty"`
}

// Locations returns the registry in display order.
func Locations() []Location {
	out := make([]Location, len(locations))
	copy(out, locations)
	return out
}

// LookupLocation resolves a location id.
func LookupLocation(id string) (Location, bool) {
	for _, loc := range locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return Location{}, false
}

var locations = []Location{
	{
		ID: "wilson-creek", Name: "Wilson Creek", Region: "North Carolina", City: "Grandfather Mountain",
		Description: "Wilson Creek tumbles off Grandfather Mountain with granite plunge pools and wild browns hiding.",
		Latitude:    35.9257, Longitude: -81.6745, GaugeSite: "02140510",
	},
	{
		ID: "ararat-river", Name: "Ararat River", Region: "North Carolina", City: "Mount Airy",
		Description: "Ararat River drifts through Mount Airy farmland with gentle riffles perfect for cautious rainbows.",
		Latitude:    36.404389, Longitude: -80.561694, GaugeSite: "02113850",
	},
	{
		ID: "big-horse-creek", Name: "Big Horse Creek", Region: "North Carolina", City: "Ashe County",
		Description: "Big Horse Creek winds high in Ashe County, staying icy clear for brook trout all summer.",
		Latitude:    36.503585, Longitude: -81.514367,
	},
	{
		ID: "big-laurel-creek", Name: "Big Laurel Creek", Region: "North Carolina", City: "Madison County",
		Description: "Big Laurel Creek braids through Madison County hollers, mixing shaded riffles with soft meadow runs.",
		Latitude:    35.919826, Longitude: -82.76153,
	},
	{
		ID: "big-snowbird", Name: "Big Snowbird", Region: "North Carolina", City: "Robbinsville",
		Description: "Big Snowbird Creek remains remote and mossy, offering deep pocket water for adventurous backcountry anglers.",
		Latitude:    35.311198, Longitude: -83.859624,
	},
	{
		ID: "cane-creek", Name: "Cane Creek", Region: "North Carolina", City: "Fletcher",
		Description: "Cane Creek near Fletcher delivers stable, spring-fed currents and long glides ideal for dry-fly drifts.",
		Latitude:    36.014385, Longitude: -82.131672,
	},
	{
		ID: "cane-river", Name: "Cane River", Region: "North Carolina", City: "Yancey",
		Description: "Cane River slides past Yancey barns, combining rocky ledges and tailouts that hold strong wild rainbows.",
		Latitude:    36.014556, Longitude: -82.327631,
	},
	{
		ID: "catawba-river", Name: "Catawba River", Region: "North Carolina", City: "Lake James",
		Description: "The Catawba tailrace below Lake James keeps dependable flows and hefty browns within easy wading reach.",
		Latitude:    35.707346, Longitude: -82.033165,
	},
	{
		ID: "curtis-creek", Name: "Curtis Creek", Region: "North Carolina", City: "Pisgah Forest",
		Description: "Curtis Creek in Pisgah Forest twists under rhododendron tunnels with quick pockets demanding short accurate casts.",
		Latitude:    35.63708, Longitude: -82.157701,
	},
	{
		ID: "davidson-river", Name: "Davidson River", Region: "North Carolina", City: "Brevard",
		Description: "The Davidson River is a famed technical tailwater where selective trout reward stealthy presentations year-round.",
		Latitude:    35.3209, Longitude: -82.6221, GaugeSite: "03441000",
	},
	{
		ID: "east-fork-french-broad-river", Name: "East Fork French Broad River", Region: "North Carolina", City: "Rosman",
		Description: "East Fork French Broad spills over cascades and boulders, pushing oxygen-rich water through laurel chutes.",
		Latitude:    35.139042, Longitude: -82.805848,
	},
	{
		ID: "east-prong-roaring-river", Name: "East Prong Roaring River", Region: "North Carolina", City: "Stone Mountain",
		Description: "East Prong Roaring River courses through Stone Mountain cliffs, blending stair-step pools with slick granite slides.",
		Latitude:    36.381069, Longitude: -81.06868,
	},
	{
		ID: "elk-creek", Name: "Elk Creek", Region: "North Carolina", City: "Wilkes County",
		Description: "Elk Creek meanders across Wilkes County pastures, offering clear runs and easy public pull-offs for families.",
		Latitude:    36.071389, Longitude: -81.403056, GaugeSite: "02111180",
	},
	{
		ID: "elk-river", Name: "Elk River", Region: "North Carolina", City: "Banner Elk",
		Description: "The Elk River near Banner Elk carries cold spring water through deep limestone pockets sheltering bruiser rainbows.",
		Latitude:    36.1707, Longitude: -82.0187,
	},
	{
		ID: "fires-creek", Name: "Fires Creek", Region: "North Carolina", City: "Hayesville",
		Description: "Fires Creek climbs into the Nantahala backcountry with fern-lined bends and solitude for dedicated explorers.",
		Latitude:    35.077032, Longitude: -83.864067,
	},
	{
		ID: "green-river", Name: "Green River", Region: "North Carolina", City: "Saluda",
		Description: "Green River tailwater below Lake Summit provides consistent releases, slick boulders, and prolific caddis activity.",
		Latitude:    35.305671, Longitude: -82.275115,
	},
	{
		ID: "helton-creek", Name: "Helton Creek", Region: "North Carolina", City: "Ashe County",
		Description: "Helton Creek's delayed-harvest stretch drifts through open pastures where braided seams stack up hungry trout.",
		Latitude:    36.544028, Longitude: -81.434043,
	},
	{
		ID: "jacobs-fork", Name: "Jacobs Fork", Region: "North Carolina", City: "Morganton",
		Description: "Jacobs Fork tumbles inside South Mountains State Park, its plunge pools framed by towering hemlocks and rhododendron.",
		Latitude:    35.590556, Longitude: -81.566944, GaugeSite: "02143040",
	},
	{
		ID: "little-river", Name: "Little River", Region: "North Carolina", City: "DuPont State Forest",
		Description: "Little River by DuPont State Forest mixes waterfall plunge pools with sandy shoals suited for family wades.",
		Latitude:    35.192339, Longitude: -82.613457,
	},
	{
		ID: "mill-creek", Name: "Mill Creek", Region: "North Carolina", City: "Old Fort",
		Description: "Mill Creek near Old Fort stays shaded and cool, flashing quick riffles between overhanging mountain laurels.",
		Latitude:    35.633176, Longitude: -82.187059,
	},
	{
		ID: "mitchell-river", Name: "Mitchell River", Region: "North Carolina", City: "Surry County",
		Description: "Mitchell River winds through Surry vineyards, combining broad glides and woody cover that shelter stocky browns.",
		Latitude:    36.311389, Longitude: -80.807222,
	},
	{
		ID: "nantahala-river", Name: "Nantahala River", Region: "North Carolina", City: "Bryson City",
		Description: "The Nantahala tailrace slices through a whitewater gorge, yet side eddies hide pods of eager rainbows.",
		Latitude:    35.2137, Longitude: -83.5596, GaugeSite: "03505550",
	},
	{
		ID: "north-fork-mills-river", Name: "North Fork Mills River", Region: "North Carolina", City: "Mills River",
		Description: "North Fork Mills River flows from the Blue Ridge Parkway with tight meanders and wild brook trout pockets.",
		Latitude:    35.406503, Longitude: -82.648847,
	},
	{
		ID: "north-toe-river", Name: "North Toe River", Region: "North Carolina", City: "Spruce Pine",
		Description: "North Toe River shines turquoise around Spruce Pine, with long cobble runs perfect for drifting nymph rigs.",
		Latitude:    35.899847, Longitude: -82.030392,
	},
	{
		ID: "reddies-river", Name: "Reddies River", Region: "North Carolina", City: "Wilkes County",
		Description: "Reddies River braids across Wilkes foothills, shallow riffles shifting into knee-deep seams ripe for high sticking.",
		Latitude:    36.175, Longitude: -81.168889, GaugeSite: "02111500",
	},
	{
		ID: "shelton-laurel-creek", Name: "Shelton Laurel Creek", Region: "North Carolina", City: "Madison County",
		Description: "Shelton Laurel Creek snakes through remote Madison hollows, stacking pocket water beneath towering hardwoods.",
		Latitude:    35.931522, Longitude: -82.735803,
	},
	{
		ID: "south-fork-new-river", Name: "South Fork New River", Region: "North Carolina", City: "Boone",
		Description: "South Fork New River glides through pastoral meadows where gentle bends invite float trips and swinging streamers.",
		Latitude:    36.393333, Longitude: -81.406944, GaugeSite: "03161000",
	},
	{
		ID: "spring-creek", Name: "Spring Creek", Region: "North Carolina", City: "Hot Springs",
		Description: "Spring Creek cuts past Hot Springs with mineral-fed clarity and undercut banks sheltering wary mountain browns.",
		Latitude:    35.798714, Longitude: -82.854308,
	},
	{
		ID: "stone-mountain-creek", Name: "Stone Mountain Creek", Region: "North Carolina", City: "Stone Mountain",
		Description: "Stone Mountain Creek spills off granite domes, offering textbook riffle-run-pool structure under open skies.",
		Latitude:    36.398459, Longitude: -81.05172,
	},
	{
		ID: "tuckasegee-river", Name: "Tuckasegee River", Region: "North Carolina", City: "Bryson City",
		Description: "Tuckasegee River tailwater near Bryson City boasts scheduled pulses and wide gravel bars packed with trout.",
		Latitude:    35.3134, Longitude: -83.1707, GaugeSite: "03508050",
	},
	{
		ID: "watauga-river", Name: "Watauga River", Region: "North Carolina", City: "Boone",
		Description: "Watauga River leaves Boone with cold releases and emerald pools that produce trophy browns on streamers.",
		Latitude:    36.239167, Longitude: -81.822222, GaugeSite: "03479000",
	},
	{
		ID: "west-fork-pigeon-river", Name: "West Fork Pigeon River", Region: "North Carolina", City: "Canton",
		Description: "West Fork Pigeon rushes from Shining Rock Wilderness, cascading through boulder gardens with fast pocket water.",
		Latitude:    35.426667, Longitude: -82.919722, GaugeSite: "0345577330",
	},
}
