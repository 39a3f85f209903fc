// Package config provides configuration loading for the signup server and
// command line tool.
//
// The configuration is read from signup.yaml, signup.yml or signup.json in
// the working directory, or from a file named with --config. Every key is
// optional; missing keys keep the values from New.
//
// # Configuration File Structure
//
//	server:
//	  address: ":8080"
//	  readTimeout: 15s
//	  writeTimeout: 15s
//	  shutdownTimeout: 10s
//	submit:
//	  delay: 1s
//	  reserved: [admin, root]
//	storage:
//	  driver: s3
//	  s3:
//	    bucket: signup-receipts
//	    prefix: accounts/
//	    region: eu-west-1
//	    endpoint: http://localhost:9000
//	    pathStyle: true
//	metrics:
//	  enabled: true
//	  namespace: signup
//	live:
//	  readTimeout: 60s
//	  maxMessageBytes: 16384
//	log:
//	  level: info
//	  format: text
//
// The environment variables SIGNUP_ADDR, SIGNUP_SUBMIT_DELAY and
// SIGNUP_LOG_LEVEL override the file.
//
// # Usage
//
//	cfg, err := config.LoadDir(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.ApplyEnv(os.LookupEnv)
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
