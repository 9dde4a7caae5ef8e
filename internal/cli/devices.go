// devices.go implements "pvlab devices" subcommands for the device
// model catalogue.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/log"
	"github.com/pvlab-dev/pvlab/internal/stats"
)

var deviceInput struct {
	model        string
	name         string
	manufacturer string
	voltage      float64
	current      float64
	power        float64
	description  string
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Browse and manage device models",
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List device models with their test stats",
	RunE:  runDevicesList,
}

var devicesAddCmd = &cobra.Command{
	Use:   "add <model>",
	Short: "Register a new device model",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevicesAdd,
}

var devicesEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update a device model; omitted flags stay unchanged",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevicesEdit,
}

var devicesRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a device model",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevicesRemove,
}

func init() {
	for _, cmd := range []*cobra.Command{devicesAddCmd, devicesEditCmd} {
		f := cmd.Flags()
		f.StringVar(&deviceInput.name, "name", "", "Human-readable device name")
		f.StringVar(&deviceInput.manufacturer, "manufacturer", "", "Manufacturer")
		f.Float64Var(&deviceInput.voltage, "rated-voltage", 0, "Rated voltage (V)")
		f.Float64Var(&deviceInput.current, "rated-current", 0, "Rated current (A)")
		f.Float64Var(&deviceInput.power, "rated-power", 0, "Rated power (W)")
		f.StringVar(&deviceInput.description, "description", "", "Free-form description")
	}
	devicesEditCmd.Flags().StringVar(&deviceInput.model, "model", "", "Rename the device model")

	devicesCmd.AddCommand(devicesListCmd)
	devicesCmd.AddCommand(devicesAddCmd)
	devicesCmd.AddCommand(devicesEditCmd)
	devicesCmd.AddCommand(devicesRemoveCmd)
}

func runDevicesList(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	devices, err := c.client.ListDevicesWithStats(context.Background())
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(devices)
	}

	if len(devices) == 0 {
		fmt.Println("No devices registered.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tNAME\tMANUFACTURER\tTESTS\tAVG PASS RATE")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			d.ID,
			d.DeviceModel,
			d.DeviceName,
			d.Manufacturer,
			d.TestCount,
			stats.FormatPercent(d.AveragePassRate),
		)
	}
	return w.Flush()
}

func runDevicesAdd(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	input := api.DeviceInput{
		DeviceModel:  args[0],
		DeviceName:   deviceInput.name,
		Manufacturer: deviceInput.manufacturer,
		Description:  deviceInput.description,
	}
	if deviceInput.voltage > 0 {
		input.RatedVoltage = &deviceInput.voltage
	}
	if deviceInput.current > 0 {
		input.RatedCurrent = &deviceInput.current
	}
	if deviceInput.power > 0 {
		input.RatedPower = &deviceInput.power
	}

	device, err := c.client.CreateDevice(context.Background(), input)
	if err != nil {
		return err
	}

	c.cache.InvalidatePrefix("devices")
	_ = c.logger.Append(log.LogEvent{
		Event: log.EventDeviceCreated,
		Data:  map[string]any{"device_id": device.ID, "model": device.DeviceModel},
	})

	fmt.Printf("Registered %s (%s)\n", device.DeviceModel, device.ID)
	return nil
}

func runDevicesEdit(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	input := api.DeviceInput{
		DeviceModel:  deviceInput.model,
		DeviceName:   deviceInput.name,
		Manufacturer: deviceInput.manufacturer,
		Description:  deviceInput.description,
	}
	if deviceInput.voltage > 0 {
		input.RatedVoltage = &deviceInput.voltage
	}
	if deviceInput.current > 0 {
		input.RatedCurrent = &deviceInput.current
	}
	if deviceInput.power > 0 {
		input.RatedPower = &deviceInput.power
	}

	device, err := c.client.UpdateDevice(context.Background(), args[0], input)
	if err != nil {
		return err
	}

	c.cache.InvalidatePrefix("devices")
	_ = c.logger.Append(log.LogEvent{
		Event: log.EventDeviceUpdated,
		Data:  map[string]any{"device_id": device.ID, "model": device.DeviceModel},
	})

	fmt.Printf("Updated %s (%s)\n", device.DeviceModel, device.ID)
	return nil
}

func runDevicesRemove(cmd *cobra.Command, args []string) error {
	c, err := newConsole()
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.requireAuth(); err != nil {
		return err
	}

	id := args[0]
	if err := c.client.DeleteDevice(context.Background(), id); err != nil {
		return err
	}

	c.cache.InvalidatePrefix("devices")
	_ = c.logger.Append(log.LogEvent{
		Event: log.EventDeviceDeleted,
		Data:  map[string]any{"device_id": id},
	})

	fmt.Printf("Removed device %s\n", id)
	return nil
}
