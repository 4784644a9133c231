package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
)

// printer writes command results as text tables or JSON documents.
type printer struct {
	w      io.Writer
	format string
}

func (p printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// devices prints a device list, one row per device.
func (p printer) devices(devices []types.Device) error {
	if p.format == outputJSON {
		if devices == nil {
			devices = []types.Device{}
		}
		return p.json(devices)
	}

	table := newTable(p.w)
	table.SetHeader([]string{"Index", "Default", "DefaultComm", "Type", "State", "Name", "ID"})
	for _, d := range devices {
		table.Append([]string{
			strconv.Itoa(d.Index),
			strconv.FormatBool(d.Default),
			strconv.FormatBool(d.DefaultCommunication),
			string(d.Type),
			d.State.String(),
			d.Name,
			d.ID,
		})
	}
	table.Render()
	return nil
}

// device prints a single record as a two-column property list.
func (p printer) device(d types.Device) error {
	if p.format == outputJSON {
		return p.json(d)
	}

	table := newTable(p.w)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	table.AppendBulk([][]string{
		{"Index", strconv.Itoa(d.Index)},
		{"Default", strconv.FormatBool(d.Default)},
		{"DefaultCommunication", strconv.FormatBool(d.DefaultCommunication)},
		{"Type", string(d.Type)},
		{"State", d.State.String()},
		{"Name", d.Name},
		{"ID", d.ID},
	})
	table.Render()
	return nil
}

// volume prints a percentage as "42.5%" or as a JSON volume document.
func (p printer) volume(target types.Target, pct float64) error {
	if p.format == outputJSON {
		return p.json(types.VolumeResponse{Target: target, Volume: pct, Display: audio.FormatVolume(pct)})
	}
	_, err := fmt.Fprintln(p.w, audio.FormatVolume(pct))
	return err
}

// mute prints a mute state as true or false.
func (p printer) mute(target types.Target, muted bool) error {
	if p.format == outputJSON {
		return p.json(types.MuteResponse{Target: target, Mute: muted})
	}
	_, err := fmt.Fprintln(p.w, strconv.FormatBool(muted))
	return err
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
