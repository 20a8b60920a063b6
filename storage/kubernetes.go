package storage

import (
	"context"
	"fmt"
	"os"

	v1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

var _ Storage = &Kubernetes{}

// Kubernetes stores snapshots as binary data keys of a single ConfigMap.
// Updates carry the resourceVersion that was read, so concurrent writers
// cannot overwrite each other silently. A ConfigMap holds at most 1MiB.
type Kubernetes struct {
	KubernetesConfig
	client kubernetes.Interface
}

type KubernetesConfig struct {
	Namespace string `config:"namespace"`
	ConfigMap string `config:"configMap"`
}

func NewKubernetesConfig() KubernetesConfig {
	return KubernetesConfig{
		Namespace: getDefaultNamespace(),
		ConfigMap: "trustlist",
	}
}

func NewKubernetesFromConfig(cfg KubernetesConfig) (*Kubernetes, error) {
	k8sConfig, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("getting in-cluster config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(k8sConfig)
	if err != nil {
		return nil, fmt.Errorf("creating k8s config: %w", err)
	}

	return NewKubernetes(clientset, cfg), nil
}

func NewKubernetes(client kubernetes.Interface, cfg KubernetesConfig) *Kubernetes {
	if cfg.Namespace == "" {
		cfg.Namespace = getDefaultNamespace()
	}
	if cfg.ConfigMap == "" {
		cfg.ConfigMap = "trustlist"
	}
	return &Kubernetes{KubernetesConfig: cfg, client: client}
}

func (k *Kubernetes) Read(ctx context.Context, key string) ([]byte, error) {
	key = sanitizeKey(key)

	cm, err := k.client.CoreV1().ConfigMaps(k.Namespace).Get(ctx, k.ConfigMap, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("k8s: getting configmap: %w", err)
	}

	if data, ok := cm.BinaryData[key]; ok {
		return data, nil
	}
	if data, ok := cm.Data[key]; ok {
		return []byte(data), nil
	}
	return nil, ErrNotFound
}

func (k *Kubernetes) Write(ctx context.Context, key string, data []byte) error {
	key = sanitizeKey(key)
	configMaps := k.client.CoreV1().ConfigMaps(k.Namespace)

	cm, err := configMaps.Get(ctx, k.ConfigMap, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		_, err = configMaps.Create(ctx, &v1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: k.ConfigMap},
			BinaryData: map[string][]byte{key: data},
		}, metav1.CreateOptions{})
		if err != nil {
			return fmt.Errorf("k8s: creating configmap: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("k8s: getting configmap: %w", err)
	}

	if cm.BinaryData == nil {
		cm.BinaryData = map[string][]byte{}
	}
	cm.BinaryData[key] = data
	delete(cm.Data, key)

	if _, err := configMaps.Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("k8s: updating configmap: %w", err)
	}
	return nil
}

var defaultInstallNamespace = "default"

func getDefaultNamespace() string {
	contents, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace")
	if err != nil {
		return defaultInstallNamespace
	}

	if len(contents) > 0 {
		return string(contents)
	}

	return defaultInstallNamespace
}
