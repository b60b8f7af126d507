package tables

import "github.com/JonMunkholm/vetimport/internal/core"

func init() {
	registerMobileClinicVisits()
	registerEquineHealth()
}

func registerMobileClinicVisits() {
	core.Register(core.TableDefinition{
		Type:          core.TableMobileClinic,
		Label:         "Mobile Clinic Visits",
		Description:   "Outreach clinic consultations and diagnoses",
		RequiredField: "diagnosis",
		Endpoint:      "/api/import/mobile-clinic-visits",
	})
}

func registerEquineHealth() {
	core.Register(core.TableDefinition{
		Type:          core.TableEquineHealth,
		Label:         "Equine Health",
		Description:   "Equine surgical and health interventions",
		RequiredField: "surgeryType",
		Endpoint:      "/api/import/equine-health",
	})
}
