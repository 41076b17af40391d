package backend

// Resources bundles one client per backend resource family.
type Resources struct {
	Equipment    *EquipmentClient
	Points       *PointsClient
	Certificates *CertificatesClient
	Config       *ConfigClient
	Dashboard    *DashboardClient
	Import       *ImportClient
}

// NewResources builds every resource client on top of c.
func NewResources(c *Client) *Resources {
	return &Resources{
		Equipment:    NewEquipmentClient(c),
		Points:       NewPointsClient(c),
		Certificates: NewCertificatesClient(c),
		Config:       NewConfigClient(c),
		Dashboard:    NewDashboardClient(c),
		Import:       NewImportClient(c),
	}
}
