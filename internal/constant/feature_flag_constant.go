package constant

type PredefinedFeatureFlag struct {
	Name        string
	Description string
}

// PredefinedFeatureFlags are seeded disabled on start. Their descriptions
// are kept in sync with this list; their enabled state is left to admins.
var PredefinedFeatureFlags = []PredefinedFeatureFlag{
	{
		Name:        "Spiritual Parenting",
		Description: "Enable parenting-focused spiritual guidance and family-oriented advice for raising children with spiritual values.",
	},
	{
		Name:        "Grief Support",
		Description: "Enable grief counseling and loss support features to help users through difficult times with spiritual comfort.",
	},
	{
		Name:        "Meditation Guidance",
		Description: "Enable meditation techniques and mindfulness practices to help users develop spiritual awareness and inner peace.",
	},
	{
		Name:        "Scripture Study",
		Description: "Enable in-depth scripture analysis and biblical interpretation for deeper understanding of religious texts.",
	},
	{
		Name:        "Prayer Requests",
		Description: "Enable prayer request features and spiritual intercession support for community prayer needs.",
	},
	{
		Name:        "Community Features",
		Description: "Enable group discussions and community sharing features for spiritual fellowship.",
	},
}
