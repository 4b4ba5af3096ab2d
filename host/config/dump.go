package config

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// confirm is replaced in tests
var confirm = askForConfirmationDefaultYes

func askForConfirmationDefaultYes(s string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [Y/n]: ", s)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes" || response == ""
}

// DumpOption writes opt as yaml to outputPath, creating the directory.
// An existing file is only replaced with overwrite set or after confirmation.
func DumpOption(opt interface{}, outputPath string, overwrite bool) error {
	buffer, err := yaml.Marshal(opt)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(path.Dir(outputPath), 0700); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", path.Dir(outputPath), err)
	}

	if !overwrite {
		if _, err := os.Stat(outputPath); err == nil {
			if !confirm("configuration " + outputPath + " already exist, overwrite?") {
				log.Infoln("abort")
				return nil
			}
		}
	}

	log.Infoln("writing default configuration to", outputPath)
	return os.WriteFile(outputPath, buffer, 0600)
}
