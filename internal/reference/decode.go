package reference

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/invoic-edifact/internal/types"
	"gopkg.in/yaml.v3"
)

type chargeCodeFile struct {
	ChargeCodes []types.ChargeCodeMapping `json:"chargeCodes" yaml:"charge_codes"`
}

type containerSizeFile struct {
	ContainerSizes []types.ContainerSizeMapping `json:"containerSizes" yaml:"container_sizes"`
}

func decodeChargeCodes(path string, data []byte) ([]types.ChargeCodeMapping, error) {
	switch format(path) {
	case ".xlsx":
		rows, err := readSheet(data)
		if err != nil {
			return nil, err
		}
		entries := make([]types.ChargeCodeMapping, 0, len(rows))
		for _, r := range rows {
			m := types.ChargeCodeMapping{
				ChargeCode:          r.get("chargecode", "code"),
				Description:         r.get("description"),
				BillingType:         r.get("billingtype"),
				EdifactCode:         r.get("edifactcode"),
				ChargeType:          r.get("chargetype"),
				ServiceCategoryCode: r.get("servicecategorycode", "servicecategory"),
			}
			if m.ChargeCode == "" {
				continue
			}
			entries = append(entries, m)
		}
		return entries, nil

	case ".yaml", ".yml":
		var f chargeCodeFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f.ChargeCodes, nil

	case ".json":
		var f chargeCodeFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f.ChargeCodes, nil
	}

	return nil, fmt.Errorf("unsupported mapping file format: %s", filepath.Ext(path))
}

func decodeContainerSizes(path string, data []byte) ([]types.ContainerSizeMapping, error) {
	switch format(path) {
	case ".xlsx":
		rows, err := readSheet(data)
		if err != nil {
			return nil, err
		}
		entries := make([]types.ContainerSizeMapping, 0, len(rows))
		for _, r := range rows {
			m := types.ContainerSizeMapping{
				SourceSize:            r.get("sourcesize", "containersize"),
				Description:           r.get("description"),
				EdifactCode:           r.get("edifactcode"),
				EquipmentSizeTypeCode: r.get("equipmentsizetypecode", "equipmentsizetype"),
				Size:                  r.get("size", "displaysize"),
			}
			if m.SourceSize == "" {
				continue
			}
			entries = append(entries, m)
		}
		return entries, nil

	case ".yaml", ".yml":
		var f containerSizeFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f.ContainerSizes, nil

	case ".json":
		var f containerSizeFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f.ContainerSizes, nil
	}

	return nil, fmt.Errorf("unsupported mapping file format: %s", filepath.Ext(path))
}

func format(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
