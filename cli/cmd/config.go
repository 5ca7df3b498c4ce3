package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [new_display_name]",
	Short: "Gets or sets the display name.",
	Long: `Manages configuration for the chatroom client.
If called without arguments, it displays the current configuration.
If called with an argument, it sets the display name to the provided value.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Printf("Server URL: %s\n", serverURL)
			fmt.Printf("Display Name: %s\n", displayName)
			return
		}

		viper.Set(displayNameKey, args[0])
		if err := viper.WriteConfig(); err != nil {
			// No config file yet; create one in the home directory.
			if err := viper.SafeWriteConfig(); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
				return
			}
		}
		displayName = args[0]
		fmt.Printf("Display name set to: %s\n", displayName)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
