package tables

import "github.com/JonMunkholm/vetimport/internal/core"

func init() {
	registerLabTests()
	registerVaccinations()
	registerParasiteControl()
}

func registerLabTests() {
	core.Register(core.TableDefinition{
		Type:          core.TableLab,
		Label:         "Lab Tests",
		Description:   "Diagnostic lab results keyed by sample code",
		RequiredField: "sampleCode",
		Endpoint:      "/api/import/lab-tests",
	})
}

func registerVaccinations() {
	core.Register(core.TableDefinition{
		Type:          core.TableVaccination,
		Label:         "Vaccinations",
		Description:   "Vaccination campaign records",
		RequiredField: "vaccinationType",
		Endpoint:      "/api/import/vaccinations",
	})
}

func registerParasiteControl() {
	core.Register(core.TableDefinition{
		Type:          core.TableParasiteControl,
		Label:         "Parasite Control",
		Description:   "Dipping, spraying and deworming treatments",
		RequiredField: "insecticideType",
		Endpoint:      "/api/import/parasite-control",
	})
}
