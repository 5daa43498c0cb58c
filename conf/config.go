package conf

/*
   This is a package that wraps viper, a package designed to handle config
   files, for the connector. Variables are primarily read from an env file
   when one is present; anything not tracked there falls back to the process
   environment.

   Assumptions:
   1. The configuration file is a env file
   2. The configuration file, once it is made available to the application,
   will stay immutable during the uptime of the application (exception is test)
*/

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

// An instance of the viper struct containing the conf information. Only made
// accessible through public functions GetEnv, SetEnv, etc.
var envVars viper.Viper

// Tracks whether a config file was found and parsed.
const (
	configgood    uint8 = 0
	configbad     uint8 = 1
	noconfigfound uint8 = 2
)

var state uint8 = configgood // if config file found and loaded, doesn't change

/*
   setup is the private helper function that sets up viper. It is called by
   the init() function once during initialization of the package.
*/
func setup(dir string) *viper.Viper {

	var v = viper.New()
	v.SetConfigName("local")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	// Viper is lazy, do the read and parse of the config file
	var err = v.ReadInConfig()

	if err != nil {
		state = configbad
	}

	return v
}

/*
   init:
   First thing to run when this package is loaded by the binary.
   Even if multiple packages import conf, this will be called and ran ONLY once.
*/
func init() {

	// Possible config file locations: local development and deployed
	// environments respectively.
	var locationSlice = [2]string{
		"shared_files/local",
		"/etc/smartfhir",
	}

	if success, loc := findEnv(locationSlice[:]); success {
		envVars = *setup(loc)
	} else {
		// Checked both locations, no config file found
		state = noconfigfound
	}
}

/*
   findEnv is a helper function that determines what environment the
   application is running in. Each environment has a distinct path where the
   configuration file is located. First checks the local path, then the
   deployed one. If both not found, defaults to just using env vars.
*/
func findEnv(location []string) (bool, string) {

	if _, err := os.Stat(location[0] + "/local.env"); err == nil {
		return true, location[0]
	}

	// Base case: checked all locations and no configurations found
	if len(location) == 1 {
		return false, ""
	}

	return findEnv(location[1:])
}

// GetEnv is a public function that retrieves the value stored in conf. If it
// does not exist, "" empty string is returned.
func GetEnv(key string) string {

	if state == configgood {

		var value = envVars.GetString(key)
		var b bool

		// Even if the config file loaded, if the key doesn't exist in conf,
		// try the environment.
		if value == "" {
			// Copy it over to conf to prevent additional OS calls.
			// Remember to delete both from conf and environment var when UnsetEnv() called!
			value, b = os.LookupEnv(key)

			if b {
				test := &testing.T{}
				var _ = SetEnv(test, key, value)
			}
		}

		return value
	}

	// Config file not good, so default to environment
	return os.Getenv(key)
}

// LookupEnv augments os.LookupEnv to look in the viper struct first.
func LookupEnv(key string) (string, bool) {

	if state == configgood {
		if value := envVars.Get(key); value != nil && value != "" {
			return value.(string), true
		}

		if v, exist := os.LookupEnv(key); exist {
			// bring value over to conf
			test := &testing.T{}
			var _ = SetEnv(test, key, v)
			return v, exist
		}

		return "", false
	}

	return os.LookupEnv(key)
}

// SetEnv is a public function that adds key values into conf. This function
// should only be used either in this package itself or testing. The protect
// parameter is type *testing.T, and is there to ensure developers knowingly
// use it in the appropriate scope.
func SetEnv(protect *testing.T, key string, value string) error {

	var err error

	if state == configgood {
		envVars.Set(key, value)
	} else {
		err = os.Setenv(key, value)
	}

	return err
}

// UnsetEnv is a public function that "unsets" a variable. Like SetEnv, this
// should only be used either in this package itself or testing.
func UnsetEnv(protect *testing.T, key string) error {
	var err error

	if state == configgood {
		envVars.Set(key, "")
	}

	// The value may have been copied into conf from the environment, so clear
	// both places.
	err = os.Unsetenv(key)

	return err
}
