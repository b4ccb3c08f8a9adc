package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-cv-bot/internal/config"
	"go-cv-bot/internal/payment"
)

const (
	app       = "cv-admin"
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errAborted = errors.New("aborted")

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "cv-admin manages the payment gate and shows analytics of the CV bot",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "the bot config file")
	rootCmd.PersistentFlags().String("payment-dir", "", "directory with the payment state files")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func initConfig() {
	_ = godotenv.Load()

	viper.SetDefault("payment.dir", "config")
	viper.BindEnv("payment.dir", "PAYMENT_DIR")
	viper.BindEnv("database_url", "DATABASE_URL")
	if f := rootCmd.PersistentFlags().Lookup("payment-dir"); f.Changed {
		viper.BindPFlag("payment.dir", f)
	}
	viper.BindPFlag("yes", rootCmd.PersistentFlags().Lookup("yes"))

	// the config file is optional for the admin tool
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "⚠️ Ignoring config %s: %v\n", cfgFile, err)
	}
}

func openGate() (*payment.Gate, error) {
	return payment.New(viper.GetString("payment.dir"))
}

// confirm asks before a change that affects users, unless --yes is set.
func confirm(label string) error {
	if viper.GetBool("yes") {
		return nil
	}
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}
	_, answer, err := prompt.Run()
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	if answer != PromptYes {
		return errAborted
	}
	return nil
}
